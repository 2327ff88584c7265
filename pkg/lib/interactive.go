package lib

import (
	"io"
	"time"

	"github.com/adsysio/adsys/internal/shell"
)

// InteractionStep pairs an expected prompt with the answer sent back once
// it appears.
type InteractionStep struct {
	// Pattern is a regular expression matched against the program output,
	// or a literal string when Exact is set.
	Pattern string
	// Response is sent with a trailing newline after Pattern matches.
	Response string
	Exact    bool
}

// InteractiveOpts configures an interactive session.
//
// Pass nil for defaults (no arguments, 30s per-expect timeout, discarded
// output).
type InteractiveOpts struct {
	// Args are the program arguments.
	Args []string
	// Timeout bounds each individual expect.
	Timeout time.Duration
	// Output receives a copy of everything the program writes.
	Output io.Writer
}

// InteractiveSession drives a terminal program by matching its prompts and
// answering them. The program runs on a pseudo-terminal, so tools that
// refuse piped stdin still prompt.
type InteractiveSession struct {
	inner *shell.Interactive
}

// NewInteractiveSession creates an interactive session for command. The
// program is not spawned until Start or AutoInteract.
func (c *Client) NewInteractiveSession(command string, opts *InteractiveOpts) (*InteractiveSession, error) {
	if opts == nil {
		opts = &InteractiveOpts{}
	}

	inner, err := shell.NewInteractive(shell.InteractiveConfig{
		Command: command,
		Args:    opts.Args,
		Timeout: opts.Timeout,
		Output:  opts.Output,
		Logger:  c.logger,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return &InteractiveSession{inner: inner}, nil
}

// Start spawns the program.
func (s *InteractiveSession) Start() error {
	return mapError(s.inner.Start())
}

// ExpectAndSend waits for pattern on the program output and answers it with
// response. Pattern is a regular expression unless exact is set.
func (s *InteractiveSession) ExpectAndSend(pattern, response string, exact bool) error {
	return mapError(s.inner.ExpectAndSend(pattern, response, exact))
}

// Wait blocks until the program finishes and returns its exit code.
func (s *InteractiveSession) Wait() (int, error) {
	code, err := s.inner.Wait()
	return code, mapError(err)
}

// Close terminates the program.
func (s *InteractiveSession) Close() error {
	return mapError(s.inner.Close())
}

// AutoInteract runs the steps in order, waits for the program to finish and
// returns its exit code. It starts the session if needed.
func (s *InteractiveSession) AutoInteract(steps []InteractionStep) (int, error) {
	inner := make([]shell.InteractionStep, 0, len(steps))
	for _, step := range steps {
		inner = append(inner, shell.InteractionStep{
			Pattern:  step.Pattern,
			Response: step.Response,
			Exact:    step.Exact,
		})
	}

	code, err := s.inner.AutoInteract(inner)
	return code, mapError(err)
}

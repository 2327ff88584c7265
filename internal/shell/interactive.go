package shell

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"time"

	expect "github.com/google/goexpect"

	"github.com/adsysio/adsys/internal/log"
	"github.com/adsysio/adsys/internal/model"
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

// InteractiveConfig is the configuration of Interactive.
type InteractiveConfig struct {
	// Command is the program to drive.
	Command string
	Args    []string
	// Timeout bounds each individual expect. Default 30s.
	Timeout time.Duration
	// Output receives a copy of everything the program writes (optional).
	Output io.Writer
	Logger log.Logger
}

func (c *InteractiveConfig) defaults() error {
	if c.Command == "" {
		return fmt.Errorf("command is required")
	}

	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "shell.Interactive"})

	return nil
}

// Interactive drives a program that prompts on a terminal, matching its
// output against patterns and answering them. The program runs on a
// pseudo-terminal so tools that refuse piped stdin still prompt.
type Interactive struct {
	command string
	args    []string
	timeout time.Duration
	output  io.Writer
	logger  log.Logger

	session *expect.GExpect
	exited  <-chan error
}

// NewInteractive creates a new interactive runner. The program is not
// spawned until Start (or the first AutoInteract) is called.
func NewInteractive(cfg InteractiveConfig) (*Interactive, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Interactive{
		command: cfg.Command,
		args:    cfg.Args,
		timeout: cfg.Timeout,
		output:  cfg.Output,
		logger:  cfg.Logger,
	}, nil
}

// Start spawns the program on a pseudo-terminal.
func (i *Interactive) Start() error {
	if i.session != nil {
		return fmt.Errorf("session already started: %w", model.ErrNotValid)
	}

	argv := append([]string{i.command}, i.args...)
	i.logger.Infof("Starting interactive session: %s", strings.Join(argv, " "))

	opts := []expect.Option{}
	if i.output != nil {
		opts = append(opts, expect.Tee(nopWriteCloser{i.output}))
	}

	session, exited, err := expect.SpawnWithArgs(argv, i.timeout, opts...)
	if err != nil {
		return fmt.Errorf("could not start %q: %w", i.command, err)
	}
	i.session = session
	i.exited = exited

	return nil
}

// ExpectAndSend waits for pattern on the program output and answers it with
// response. Pattern is a regular expression unless exact is set.
func (i *Interactive) ExpectAndSend(pattern, response string, exact bool) error {
	if i.session == nil {
		return fmt.Errorf("session not started: %w", model.ErrNotValid)
	}

	expr := pattern
	if exact {
		expr = regexp.QuoteMeta(pattern)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	_, _, err = i.session.Expect(re, i.timeout)
	if err != nil {
		var timeoutErr expect.TimeoutError
		if errors.As(err, &timeoutErr) {
			i.logger.Errorf("Timed out waiting for %q", pattern)
			return fmt.Errorf("no match for %q within %s: %w", pattern, i.timeout, model.ErrTimeout)
		}
		i.logger.Errorf("Program exited while waiting for %q", pattern)
		return fmt.Errorf("program exited before %q appeared: %w", pattern, model.ErrStreamClosed)
	}

	i.logger.Debugf("Matched %q, sending response", pattern)

	return i.session.Send(response + "\n")
}

// Wait blocks until the program finishes and returns its exit code.
func (i *Interactive) Wait() (int, error) {
	if i.session == nil {
		return 0, fmt.Errorf("session not started: %w", model.ErrNotValid)
	}

	err := <-i.exited
	_ = i.session.Close()

	if err == nil {
		return 0, nil
	}
	exitErr := &exec.ExitError{}
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, fmt.Errorf("interactive session failed: %w", err)
}

// Close terminates the program. Closing a finished or unstarted session is
// a no-op.
func (i *Interactive) Close() error {
	if i.session == nil {
		return nil
	}
	return i.session.Close()
}

// AutoInteract runs the steps in order, waits for the program to finish and
// returns its exit code. It starts the session if needed.
func (i *Interactive) AutoInteract(steps []InteractionStep) (int, error) {
	if i.session == nil {
		if err := i.Start(); err != nil {
			return 0, err
		}
	}

	for _, step := range steps {
		if err := i.ExpectAndSend(step.Pattern, step.Response, step.Exact); err != nil {
			return 0, err
		}
	}

	return i.Wait()
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

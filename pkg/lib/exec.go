package lib

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/adsysio/adsys/internal/model"
	"github.com/adsysio/adsys/internal/shell"
)

// Exec runs a command on the local host and returns its result.
//
// The command is tokenized with shell-quoting rules unless [ExecOpts].Shell
// is set, in which case it runs through `/bin/sh -c`. Pass nil opts for
// defaults.
//
// Returns [ErrTimeout] when [ExecOpts].Timeout elapses before the command
// finishes. With [ExecOpts].Check set, a non-zero exit code is an error
// carrying the result (*[model.CommandError] internally).
func (c *Client) Exec(ctx context.Context, command string, opts *ExecOpts) (*ExecResult, error) {
	if opts == nil {
		opts = &ExecOpts{}
	}

	result, err := c.executor.Run(ctx, shell.Request{
		Command: command,
		Shell:   opts.Shell,
		Dir:     opts.Dir,
		Env:     opts.Env,
		Input:   opts.Input,
		Timeout: opts.Timeout,
		Check:   opts.Check,
	})
	if err != nil {
		var cmdErr *model.CommandError
		if c.recordHistory && errors.As(err, &cmdErr) {
			c.record(ctx, cmdErr.Result, opts.Dir)
		}
		return nil, mapError(err)
	}

	if c.recordHistory {
		c.record(ctx, *result, opts.Dir)
	}

	public := fromInternalExecResult(*result)
	return &public, nil
}

// History returns the most recent recorded executions, newest first.
// A limit of zero returns everything.
func (c *Client) History(ctx context.Context, limit int) ([]Execution, error) {
	executions, err := c.repo.ListExecutions(ctx, limit)
	if err != nil {
		return nil, mapError(err)
	}

	result := make([]Execution, len(executions))
	for i, e := range executions {
		result[i] = fromInternalExecution(e)
	}
	return result, nil
}

// record stores an execution in the history database. Best-effort, a storage
// failure only warns.
func (c *Client) record(ctx context.Context, result model.ExecResult, workingDir string) {
	execution := model.Execution{
		ID:         ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String(),
		Command:    result.Command,
		ExitCode:   result.ExitCode,
		WorkingDir: workingDir,
		Duration:   result.Duration,
		CreatedAt:  time.Now().UTC(),
	}
	if err := c.repo.CreateExecution(ctx, execution); err != nil {
		c.logger.Warningf("Could not record execution: %s", err)
	}
}

// SessionOpts configures a new session.
type SessionOpts struct {
	// Dir is the session's initial working directory. Empty uses the
	// process working directory.
	Dir string
	// Env is the session's initial environment overlay.
	Env map[string]string
}

// Session keeps a working directory and environment variables across
// commands, like an interactive shell.
type Session struct {
	inner  *shell.Session
	client *Client
}

// NewSession creates a session.
func (c *Client) NewSession(opts SessionOpts) (*Session, error) {
	inner, err := shell.NewSession(shell.SessionConfig{
		Dir:    opts.Dir,
		Env:    opts.Env,
		Runner: c.executor,
		Logger: c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create session: %w", err)
	}
	return &Session{inner: inner, client: c}, nil
}

// Run executes a command in the session's working directory with the
// session's environment.
func (s *Session) Run(ctx context.Context, command string, opts *ExecOpts) (*ExecResult, error) {
	if opts == nil {
		opts = &ExecOpts{}
	}

	result, err := s.inner.Run(ctx, shell.Request{
		Command: command,
		Shell:   opts.Shell,
		Env:     opts.Env,
		Input:   opts.Input,
		Timeout: opts.Timeout,
		Check:   opts.Check,
	})
	if err != nil {
		return nil, mapError(err)
	}

	public := fromInternalExecResult(*result)
	return &public, nil
}

// Cd changes the session's working directory. The directory must exist,
// otherwise [ErrNotFound] is returned and the session is unchanged.
func (s *Session) Cd(path string) error {
	return mapError(s.inner.Cd(path))
}

// Dir returns the session's current working directory.
func (s *Session) Dir() string { return s.inner.Dir() }

// SetVar sets an environment variable for subsequent commands.
func (s *Session) SetVar(key, value string) { s.inner.SetVar(key, value) }

// GetVar returns a session variable, or the fallback when unset.
func (s *Session) GetVar(key, fallback string) string { return s.inner.GetVar(key, fallback) }

// Package shell implements the synchronous command execution core used by
// every subprocess wrapper in the application.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/adsysio/adsys/internal/log"
	"github.com/adsysio/adsys/internal/model"
)

// pipeWaitDelay bounds how long a finished or killed command may keep its
// output pipes open (through surviving background children) before Run
// gives up on them.
const pipeWaitDelay = 2 * time.Second

// Request describes a single command execution.
type Request struct {
	// Argv is the argument vector to run. Mutually exclusive with Command.
	Argv []string
	// Command is a raw command line. It is tokenized with shell-quoting rules
	// unless Shell is set, in which case it is passed verbatim to `/bin/sh -c`.
	Command string
	// Shell runs Command through an interpreting shell.
	Shell bool
	// Dir is the working directory for the command (optional).
	Dir string
	// Env is an environment overlay merged over the ambient environment.
	// Overlay keys win on collision.
	Env map[string]string
	// Input is supplied on the process standard input (optional).
	Input string
	// Timeout bounds the execution. Zero means no timeout.
	Timeout time.Duration
	// Check makes a non-zero exit code an error (*model.CommandError).
	Check bool
	// Stdout and Stderr opt out of capture: when set, output streams to the
	// writers and the result's Stdout/Stderr fields are empty.
	Stdout io.Writer
	Stderr io.Writer
}

// Runner knows how to run commands. It is the seam consumed by every
// subprocess wrapper and mocked in their tests.
type Runner interface {
	Run(ctx context.Context, req Request) (*model.ExecResult, error)
}

// ExecutorConfig is the configuration for the executor.
type ExecutorConfig struct {
	Logger log.Logger
}

func (c *ExecutorConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "shell.Executor"})
	return nil
}

// Executor runs commands as child processes, capturing their output and
// measuring wall-clock duration.
type Executor struct {
	logger log.Logger
}

// Interface assertion.
var _ Runner = &Executor{}

// NewExecutor creates a new executor.
func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Executor{logger: cfg.Logger}, nil
}

// Run executes the request and returns its result.
//
// It spawns exactly one child process and waits synchronously for completion
// or timeout. On timeout the process is killed before the error propagates
// and no result is produced.
func (e *Executor) Run(ctx context.Context, req Request) (*model.ExecResult, error) {
	argv, cmdStr, err := resolveArgv(req)
	if err != nil {
		return nil, err
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	e.logger.Debugf("Running command: %s", cmdStr)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = req.Dir
	cmd.Env = mergeEnv(os.Environ(), req.Env)
	// Background children inherit the output pipes and can hold them open
	// after the command exits or is killed, so the wait must be bounded.
	cmd.WaitDelay = pipeWaitDelay

	if req.Input != "" {
		cmd.Stdin = strings.NewReader(req.Input)
	}

	var stdout, stderr bytes.Buffer
	capture := req.Stdout == nil && req.Stderr == nil
	if capture {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	} else {
		cmd.Stdout = req.Stdout
		cmd.Stderr = req.Stderr
	}

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		e.logger.Errorf("Command timed out after %.2fs: %s", duration.Seconds(), cmdStr)
		return nil, fmt.Errorf("command %q did not finish within %s: %w", cmdStr, req.Timeout, model.ErrTimeout)
	}

	exitCode := 0
	switch {
	case runErr == nil:
	case errors.Is(runErr, exec.ErrWaitDelay):
		// The command exited but a background child kept the pipes open
		// past the wait delay. The command's own exit still counts.
		exitCode = cmd.ProcessState.ExitCode()
	default:
		exitErr := &exec.ExitError{}
		if !errors.As(runErr, &exitErr) {
			// Spawn failure (binary missing, dir unreadable...), not a command exit.
			return nil, fmt.Errorf("could not run command %q: %w", cmdStr, runErr)
		}
		exitCode = exitErr.ExitCode()
	}

	result := &model.ExecResult{
		Stdout:   strings.TrimRight(stdout.String(), " \t\r\n"),
		Stderr:   strings.TrimRight(stderr.String(), " \t\r\n"),
		ExitCode: exitCode,
		Command:  cmdStr,
		Duration: duration,
	}

	if result.Stdout != "" {
		e.logger.Debugf("STDOUT: %s", result.Stdout)
	}
	if result.Stderr != "" {
		e.logger.Debugf("STDERR: %s", result.Stderr)
	}

	if req.Check && exitCode != 0 {
		return nil, &model.CommandError{Result: *result}
	}

	return result, nil
}

// resolveArgv resolves the request into an argument vector and the literal
// command string reported in the result.
func resolveArgv(req Request) (argv []string, cmdStr string, err error) {
	switch {
	case len(req.Argv) > 0:
		return req.Argv, strings.Join(req.Argv, " "), nil
	case req.Command == "":
		return nil, "", fmt.Errorf("command is required: %w", model.ErrNotValid)
	case req.Shell:
		return []string{"/bin/sh", "-c", req.Command}, req.Command, nil
	default:
		argv, err := shlex.Split(req.Command)
		if err != nil {
			return nil, "", fmt.Errorf("could not tokenize command %q: %w", req.Command, err)
		}
		if len(argv) == 0 {
			return nil, "", fmt.Errorf("command is required: %w", model.ErrNotValid)
		}
		return argv, req.Command, nil
	}
}

// mergeEnv merges the overlay over the ambient environment, overlay wins.
func mergeEnv(ambient []string, overlay map[string]string) []string {
	if len(overlay) == 0 {
		return ambient
	}

	merged := make([]string, 0, len(ambient)+len(overlay))
	for _, kv := range ambient {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := overlay[key]; !ok {
			merged = append(merged, kv)
		}
	}
	for k, v := range overlay {
		merged = append(merged, fmt.Sprintf("%s=%s", k, v))
	}
	return merged
}

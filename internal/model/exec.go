package model

import (
	"fmt"
	"time"
)

// ExecResult is the result of a single command execution. It is immutable
// once constructed.
type ExecResult struct {
	// Stdout is the captured standard output, trimmed of trailing whitespace.
	Stdout string
	// Stderr is the captured standard error, trimmed of trailing whitespace.
	Stderr string
	// ExitCode is the exit code of the process.
	ExitCode int
	// Command is the literal command string that was run.
	Command string
	// Duration is the wall-clock time the command took.
	Duration time.Duration
}

// OK returns true when the command exited with code 0.
func (r ExecResult) OK() bool { return r.ExitCode == 0 }

// CommandError is returned when a command exits with a non-zero code and the
// caller requested strict checking. It carries the full execution result so
// stderr and the exit code remain inspectable.
type CommandError struct {
	Result ExecResult
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q failed with exit code %d: %s", e.Result.Command, e.Result.ExitCode, e.Result.Stderr)
}

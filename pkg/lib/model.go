package lib

import (
	"errors"
	"time"

	"github.com/adsysio/adsys/internal/model"
)

var (
	// ErrNotFound is returned when a resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource with the same identifier
	// already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned on invalid input or operations.
	ErrNotValid = errors.New("not valid")
	// ErrTimeout is returned when an operation exceeds its time budget.
	ErrTimeout = errors.New("timed out")
)

// ExecOpts configures a command execution.
//
// Pass nil for defaults (shell-quoted tokenization, no working dir, no extra
// env, captured output).
type ExecOpts struct {
	// Shell runs the command through `/bin/sh -c` instead of tokenizing it.
	Shell bool
	// Dir is the working directory for the command.
	Dir string
	// Env is an environment overlay merged over the ambient environment.
	Env map[string]string
	// Input is supplied on the process standard input.
	Input string
	// Timeout bounds the execution. Zero means no timeout.
	Timeout time.Duration
	// Check makes a non-zero exit code an error.
	Check bool
}

// ExecResult is the outcome of a command execution.
type ExecResult struct {
	// Stdout is the captured standard output, trimmed of trailing whitespace.
	Stdout string
	// Stderr is the captured standard error, trimmed of trailing whitespace.
	Stderr string
	// ExitCode is the exit code of the process.
	ExitCode int
	// Duration is the wall-clock time the command took.
	Duration time.Duration
}

// OK returns true when the command exited with code 0.
func (r ExecResult) OK() bool { return r.ExitCode == 0 }

// Execution is one recorded history entry.
type Execution struct {
	// ID is the unique identifier (ULID) assigned when recorded.
	ID string
	// Command is the literal command string that was run.
	Command string
	// ExitCode is the exit code of the process.
	ExitCode int
	// WorkingDir is the working directory the command ran in.
	WorkingDir string
	// Duration is the wall-clock time the command took.
	Duration time.Duration
	// CreatedAt is when the command was run.
	CreatedAt time.Time
}

// ContainerRunOpts configures a container run.
type ContainerRunOpts struct {
	// Image is the image reference to run (required). Pulled when absent.
	Image string
	// Name is the container name. When set, any pre-existing container with
	// the same name is replaced. When empty a name is generated.
	Name string
	// Detach runs the container in the background. When false, the call
	// blocks until the container exits.
	Detach bool
	// Ports maps container ports to host ports (e.g. "5432" -> "15432").
	Ports map[string]string
	// Env contains environment variables for the container.
	Env map[string]string
	// Volumes maps host paths to container paths.
	Volumes map[string]string
	// Command overrides the image command.
	Command []string
	// WaitForLog blocks until the given substring appears in the container
	// logs. Only used when Detach is true.
	WaitForLog string
	// WaitTimeout bounds the log wait.
	WaitTimeout time.Duration
	// AutoRemove makes the runtime delete the container when it exits.
	AutoRemove bool
}

// Container represents a container returned by the SDK.
type Container struct {
	// ID is the container ID.
	ID string
	// Name is the container name.
	Name string
	// Image is the image reference the container runs.
	Image string
	// Status is the runtime status string.
	Status string
}

func fromInternalExecResult(r model.ExecResult) ExecResult {
	return ExecResult{
		Stdout:   r.Stdout,
		Stderr:   r.Stderr,
		ExitCode: r.ExitCode,
		Duration: r.Duration,
	}
}

func fromInternalExecution(e model.Execution) Execution {
	return Execution{
		ID:         e.ID,
		Command:    e.Command,
		ExitCode:   e.ExitCode,
		WorkingDir: e.WorkingDir,
		Duration:   e.Duration,
		CreatedAt:  e.CreatedAt,
	}
}

func fromInternalContainer(c model.Container) Container {
	return Container{ID: c.ID, Name: c.Name, Image: c.Image, Status: c.Status}
}

func toInternalRunConfig(opts ContainerRunOpts) model.ContainerRunConfig {
	return model.ContainerRunConfig{
		Image:       opts.Image,
		Name:        opts.Name,
		Detach:      opts.Detach,
		Ports:       opts.Ports,
		Env:         opts.Env,
		Volumes:     opts.Volumes,
		Command:     opts.Command,
		WaitForLog:  opts.WaitForLog,
		WaitTimeout: opts.WaitTimeout,
		AutoRemove:  opts.AutoRemove,
	}
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		return joinErrors(err, ErrNotFound)
	case errors.Is(err, model.ErrAlreadyExists):
		return joinErrors(err, ErrAlreadyExists)
	case errors.Is(err, model.ErrNotValid):
		return joinErrors(err, ErrNotValid)
	case errors.Is(err, model.ErrTimeout), errors.Is(err, model.ErrLogWaitTimeout):
		return joinErrors(err, ErrTimeout)
	default:
		return err
	}
}

func joinErrors(original, sentinel error) error {
	return &mappedError{original: original, sentinel: sentinel}
}

// mappedError exposes a public sentinel through errors.Is while keeping the
// original message and chain.
type mappedError struct {
	original error
	sentinel error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool {
	return target == e.sentinel
}

func (e *mappedError) Unwrap() error { return e.original }

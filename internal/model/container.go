package model

import (
	"fmt"
	"time"
)

// DefaultLogWaitTimeout is the default deadline for waiting for a log line
// to appear in a container's output.
const DefaultLogWaitTimeout = 30 * time.Second

// ContainerRunConfig is the configuration for running a container.
type ContainerRunConfig struct {
	// Image is the image reference to run.
	Image string
	// Name is the container name. When set, any pre-existing container with
	// the same name is force-removed before the new one is created. When
	// empty a name is generated.
	Name string
	// Detach runs the container in the background. When false, RunContainer
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
	// WaitTimeout bounds the log wait. Defaults to DefaultLogWaitTimeout.
	WaitTimeout time.Duration
	// AutoRemove makes the runtime delete the container when it exits.
	AutoRemove bool
}

// Validate validates the container run configuration and applies defaults.
func (c *ContainerRunConfig) Validate() error {
	if c.Image == "" {
		return fmt.Errorf("image is required: %w", ErrNotValid)
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = DefaultLogWaitTimeout
	}
	return nil
}

// Container is a handle to a container created or queried by the manager.
// The underlying process is owned by the container runtime, not by us.
type Container struct {
	ID     string
	Name   string
	Image  string
	Status string
}

package lib

import (
	"context"
	"time"
)

// RunContainer runs a container against the local Docker daemon, pulling
// the image when absent.
//
// With [ContainerRunOpts].Detach set the call returns once the container is
// started (or once [ContainerRunOpts].WaitForLog matched); otherwise it
// blocks until the container exits.
//
// Returns [ErrTimeout] when a log wait exceeds its budget; the container is
// stopped before the error is returned.
func (c *Client) RunContainer(ctx context.Context, opts ContainerRunOpts) (*Container, error) {
	mgr, err := c.containerManager()
	if err != nil {
		return nil, err
	}

	cont, err := mgr.RunContainer(ctx, toInternalRunConfig(opts))
	if err != nil {
		return nil, mapError(err)
	}

	public := fromInternalContainer(*cont)
	return &public, nil
}

// StopContainer stops a running container, killing it after the timeout.
// A zero timeout uses the runtime's default grace period.
func (c *Client) StopContainer(ctx context.Context, nameOrID string, timeout time.Duration) error {
	mgr, err := c.containerManager()
	if err != nil {
		return err
	}
	return mapError(mgr.StopContainer(ctx, nameOrID, timeout))
}

// RemoveContainer force-removes a container.
func (c *Client) RemoveContainer(ctx context.Context, nameOrID string) error {
	mgr, err := c.containerManager()
	if err != nil {
		return err
	}
	return mapError(mgr.RemoveContainer(ctx, nameOrID))
}

// ListContainers returns all containers known to the local Docker daemon.
func (c *Client) ListContainers(ctx context.Context) ([]Container, error) {
	mgr, err := c.containerManager()
	if err != nil {
		return nil, err
	}

	containers, err := mgr.ListContainers(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	result := make([]Container, len(containers))
	for i, cont := range containers {
		result[i] = fromInternalContainer(cont)
	}
	return result, nil
}

// ContainerIP returns a container's bridge network IP address.
func (c *Client) ContainerIP(ctx context.Context, nameOrID string) (string, error) {
	mgr, err := c.containerManager()
	if err != nil {
		return "", err
	}

	ip, err := mgr.ContainerIP(ctx, nameOrID)
	if err != nil {
		return "", mapError(err)
	}
	return ip, nil
}

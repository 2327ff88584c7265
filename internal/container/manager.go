// Package container implements the Docker container run-and-wait primitive.
package container

import (
	"bufio"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	"github.com/oklog/ulid/v2"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/adsysio/adsys/internal/log"
	"github.com/adsysio/adsys/internal/model"
)

// maxLogLineBytes caps a single log line during the log wait.
const maxLogLineBytes = 1024 * 1024

// DockerClient is the interface for Docker operations that we use.
// This allows us to mock the Docker client for testing.
type DockerClient interface {
	ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error)
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
}

// ManagerConfig is the configuration for the container manager.
type ManagerConfig struct {
	Client DockerClient
	Logger log.Logger
}

func (c *ManagerConfig) defaults() error {
	if c.Client == nil {
		cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
		if err != nil {
			return fmt.Errorf("could not create Docker client: %w", err)
		}
		c.Client = cli
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "container.Manager"})
	return nil
}

// Manager sequences container runtime calls: image resolution, idempotent
// replacement by name, start, and the optional log wait.
type Manager struct {
	client DockerClient
	logger log.Logger
}

// NewManager creates a new container manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Manager{
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

// RunContainer runs a container: it ensures the image is present (pulling if
// absent), force-removes any pre-existing container of the same name, starts
// a new container, and optionally blocks until WaitForLog appears in the log
// stream. On a failed wait the container is stopped but not removed, so its
// final logs remain inspectable.
func (m *Manager) RunContainer(ctx context.Context, cfg model.ContainerRunConfig) (*model.Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid container run config: %w", err)
	}

	name := cfg.Name
	if name == "" {
		id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
		name = fmt.Sprintf("adsys-%s", strings.ToLower(id))
	}

	// Pull if missing.
	if err := m.ensureImage(ctx, cfg.Image); err != nil {
		return nil, err
	}

	// Cleanup existing container with the same name.
	if cfg.Name != "" {
		if err := m.removeConflicting(ctx, cfg.Name); err != nil {
			return nil, err
		}
	}

	m.logger.Infof("Starting container %s (image: %s)", name, cfg.Image)
	containerID, err := m.createAndStart(ctx, cfg, name)
	if err != nil {
		return nil, err
	}

	switch {
	case cfg.Detach && cfg.WaitForLog != "":
		if err := m.waitForLog(ctx, containerID, name, cfg.WaitForLog, cfg.WaitTimeout); err != nil {
			return nil, err
		}
	case !cfg.Detach:
		if err := m.waitForExit(ctx, containerID, name); err != nil {
			return nil, err
		}
	}

	return &model.Container{
		ID:    containerID,
		Name:  name,
		Image: cfg.Image,
	}, nil
}

// StopContainer stops a container by name or ID. A missing container is
// logged and treated as success.
func (m *Manager) StopContainer(ctx context.Context, nameOrID string, timeout time.Duration) error {
	opts := container.StopOptions{}
	if timeout > 0 {
		seconds := int(timeout.Seconds())
		opts.Timeout = &seconds
	}

	if err := m.client.ContainerStop(ctx, nameOrID, opts); err != nil {
		if strings.Contains(err.Error(), "No such container") {
			m.logger.Warningf("Container %s not found to stop", nameOrID)
			return nil
		}
		return fmt.Errorf("could not stop container %s: %w", nameOrID, err)
	}

	m.logger.Infof("Stopped container %s", nameOrID)
	return nil
}

// RemoveContainer force-removes a container by name or ID.
func (m *Manager) RemoveContainer(ctx context.Context, nameOrID string) error {
	if err := m.client.ContainerRemove(ctx, nameOrID, container.RemoveOptions{Force: true}); err != nil {
		if strings.Contains(err.Error(), "No such container") {
			m.logger.Debugf("Container %s already removed", nameOrID)
			return nil
		}
		return fmt.Errorf("could not remove container %s: %w", nameOrID, err)
	}

	m.logger.Infof("Removed container %s", nameOrID)
	return nil
}

// ListContainers lists running containers.
func (m *Manager) ListContainers(ctx context.Context) ([]model.Container, error) {
	summaries, err := m.client.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("could not list containers: %w", err)
	}

	containers := make([]model.Container, 0, len(summaries))
	for _, s := range summaries {
		name := ""
		if len(s.Names) > 0 {
			name = strings.TrimPrefix(s.Names[0], "/") // Docker prefixes with /.
		}
		containers = append(containers, model.Container{
			ID:     s.ID,
			Name:   name,
			Image:  s.Image,
			Status: s.Status,
		})
	}

	return containers, nil
}

// ContainerIP returns the primary IP address of a container.
func (m *Manager) ContainerIP(ctx context.Context, nameOrID string) (string, error) {
	info, err := m.client.ContainerInspect(ctx, nameOrID)
	if err != nil {
		if strings.Contains(err.Error(), "No such container") {
			return "", fmt.Errorf("container %s: %w", nameOrID, model.ErrNotFound)
		}
		return "", fmt.Errorf("could not inspect container %s: %w", nameOrID, err)
	}
	if info.NetworkSettings == nil {
		return "", nil
	}
	return info.NetworkSettings.IPAddress, nil
}

// ensureImage queries the local image cache and pulls the image when absent.
func (m *Manager) ensureImage(ctx context.Context, ref string) error {
	summaries, err := m.client.ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", ref)),
	})
	if err != nil {
		return fmt.Errorf("could not query local images: %w", err)
	}
	if len(summaries) > 0 {
		return nil
	}

	m.logger.Infof("Pulling image %s...", ref)
	pullResp, err := m.client.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("could not pull image %s (%s): %w", ref, err, model.ErrImagePull)
	}
	// Consume the pull response to ensure it completes.
	_, _ = io.Copy(io.Discard, pullResp)
	pullResp.Close()

	return nil
}

// removeConflicting force-removes a pre-existing container with the given
// name, in any state. Absence of a prior container is not an error.
func (m *Manager) removeConflicting(ctx context.Context, name string) error {
	_, err := m.client.ContainerInspect(ctx, name)
	if err != nil {
		if strings.Contains(err.Error(), "No such container") {
			return nil
		}
		return fmt.Errorf("could not inspect container %s: %w", name, err)
	}

	m.logger.Infof("Removing existing container %s...", name)
	if err := m.client.ContainerRemove(ctx, name, container.RemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("could not remove existing container %s: %w", name, err)
	}

	return nil
}

func (m *Manager) createAndStart(ctx context.Context, cfg model.ContainerRunConfig, name string) (string, error) {
	var envVars []string
	for k, v := range cfg.Env {
		envVars = append(envVars, fmt.Sprintf("%s=%s", k, v))
	}

	exposed := nat.PortSet{}
	bindings := nat.PortMap{}
	for containerPort, hostPort := range cfg.Ports {
		port, err := nat.NewPort("tcp", containerPort)
		if err != nil {
			return "", fmt.Errorf("invalid container port %q: %w", containerPort, model.ErrNotValid)
		}
		exposed[port] = struct{}{}
		bindings[port] = []nat.PortBinding{{HostPort: hostPort}}
	}

	var binds []string
	for hostPath, containerPath := range cfg.Volumes {
		binds = append(binds, fmt.Sprintf("%s:%s", hostPath, containerPath))
	}

	containerConfig := &container.Config{
		Image:        cfg.Image,
		Env:          envVars,
		Cmd:          cfg.Command,
		ExposedPorts: exposed,
	}
	hostConfig := &container.HostConfig{
		PortBindings: bindings,
		Binds:        binds,
		AutoRemove:   cfg.AutoRemove,
	}

	resp, err := m.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, name)
	if err != nil {
		return "", fmt.Errorf("could not create container %s: %w", name, err)
	}

	if err := m.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("could not start container %s: %w", name, err)
	}

	return resp.ID, nil
}

// waitForLog follows the container's combined log output until a line
// containing want appears. On deadline or stream end the container is
// stopped (exactly once) before the error is returned.
func (m *Manager) waitForLog(ctx context.Context, containerID, name, want string, timeout time.Duration) error {
	m.logger.Infof("Waiting for log %q in container %s...", want, name)

	logsCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rc, err := m.client.ContainerLogs(logsCtx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		m.stopAfterFailedWait(ctx, containerID, name)
		return fmt.Errorf("could not stream logs of container %s: %w", name, err)
	}
	defer rc.Close()

	// Container logs come multiplexed (no TTY allocated), demux into lines.
	pr, pw := io.Pipe()
	go func() {
		_, copyErr := stdcopy.StdCopy(pw, pw, rc)
		pw.CloseWithError(copyErr)
	}()

	scanner := bufio.NewScanner(pr)
	// Services can log very long single lines (JSON blobs, query dumps).
	// Those must stay scannable instead of ending the stream early.
	scanner.Buffer(make([]byte, 64*1024), maxLogLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		m.logger.Debugf("Container log: %s", line)
		if strings.Contains(line, want) {
			m.logger.Infof("Found log match in %s: %s", name, line)
			return nil
		}
		if logsCtx.Err() != nil {
			break
		}
	}

	// Stream ended without a match: either the deadline fired or the process
	// exited before logging the expected line.
	m.stopAfterFailedWait(ctx, containerID, name)
	if errors.Is(logsCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("container %s did not log %q within %s: %w", name, want, timeout, model.ErrLogWaitTimeout)
	}
	return fmt.Errorf("container %s log stream ended before %q appeared: %w", name, want, model.ErrStreamClosed)
}

func (m *Manager) stopAfterFailedWait(ctx context.Context, containerID, name string) {
	if err := m.client.ContainerStop(ctx, containerID, container.StopOptions{}); err != nil {
		m.logger.Errorf("Could not stop container %s after failed log wait: %v", name, err)
	}
}

// waitForExit blocks until the container is no longer running.
func (m *Manager) waitForExit(ctx context.Context, containerID, name string) error {
	respCh, errCh := m.client.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	select {
	case resp := <-respCh:
		if resp.Error != nil {
			return fmt.Errorf("container %s wait failed: %s", name, resp.Error.Message)
		}
		m.logger.Debugf("Container %s exited with status %d", name, resp.StatusCode)
		return nil
	case err := <-errCh:
		return fmt.Errorf("could not wait for container %s: %w", name, err)
	}
}

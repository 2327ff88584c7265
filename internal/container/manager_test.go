package container_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	dockercontainer "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/adsysio/adsys/internal/container"
	"github.com/adsysio/adsys/internal/model"
)

// mockDockerClient is a testify mock of the DockerClient interface.
type mockDockerClient struct {
	mock.Mock

	calls []string // Recorded call order.
}

func (m *mockDockerClient) record(name string) { m.calls = append(m.calls, name) }

func (m *mockDockerClient) ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error) {
	m.record("ImageList")
	args := m.Called(ctx, options)
	return args.Get(0).([]image.Summary), args.Error(1)
}

func (m *mockDockerClient) ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error) {
	m.record("ImagePull")
	args := m.Called(ctx, refStr, options)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *mockDockerClient) ContainerCreate(ctx context.Context, config *dockercontainer.Config, hostConfig *dockercontainer.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (dockercontainer.CreateResponse, error) {
	m.record("ContainerCreate")
	args := m.Called(ctx, config, hostConfig, networkingConfig, platform, containerName)
	return args.Get(0).(dockercontainer.CreateResponse), args.Error(1)
}

func (m *mockDockerClient) ContainerStart(ctx context.Context, containerID string, options dockercontainer.StartOptions) error {
	m.record("ContainerStart")
	args := m.Called(ctx, containerID, options)
	return args.Error(0)
}

func (m *mockDockerClient) ContainerStop(ctx context.Context, containerID string, options dockercontainer.StopOptions) error {
	m.record("ContainerStop")
	args := m.Called(ctx, containerID, options)
	return args.Error(0)
}

func (m *mockDockerClient) ContainerRemove(ctx context.Context, containerID string, options dockercontainer.RemoveOptions) error {
	m.record("ContainerRemove")
	args := m.Called(ctx, containerID, options)
	return args.Error(0)
}

func (m *mockDockerClient) ContainerInspect(ctx context.Context, containerID string) (dockercontainer.InspectResponse, error) {
	m.record("ContainerInspect")
	args := m.Called(ctx, containerID)
	return args.Get(0).(dockercontainer.InspectResponse), args.Error(1)
}

func (m *mockDockerClient) ContainerList(ctx context.Context, options dockercontainer.ListOptions) ([]dockercontainer.Summary, error) {
	m.record("ContainerList")
	args := m.Called(ctx, options)
	return args.Get(0).([]dockercontainer.Summary), args.Error(1)
}

func (m *mockDockerClient) ContainerLogs(ctx context.Context, containerID string, options dockercontainer.LogsOptions) (io.ReadCloser, error) {
	m.record("ContainerLogs")
	args := m.Called(ctx, containerID, options)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *mockDockerClient) ContainerWait(ctx context.Context, containerID string, condition dockercontainer.WaitCondition) (<-chan dockercontainer.WaitResponse, <-chan error) {
	m.record("ContainerWait")
	args := m.Called(ctx, containerID, condition)
	return args.Get(0).(<-chan dockercontainer.WaitResponse), args.Get(1).(<-chan error)
}

var errNoSuchContainer = errors.New("Error response from daemon: No such container: test")

// muxFrame encodes a log line the way the Docker daemon multiplexes streams
// when no TTY is allocated.
func muxFrame(line string) []byte {
	payload := []byte(line)
	frame := make([]byte, 8+len(payload))
	frame[0] = 1 // stdout
	binary.BigEndian.PutUint32(frame[4:8], uint32(len(payload)))
	copy(frame[8:], payload)
	return frame
}

func muxLogs(lines ...string) io.ReadCloser {
	var buf bytes.Buffer
	for _, l := range lines {
		buf.Write(muxFrame(l + "\n"))
	}
	return io.NopCloser(&buf)
}

// endlessLogs keeps emitting non-matching log lines until closed.
func endlessLogs(interval time.Duration) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		for i := 0; i < 1000; i++ {
			time.Sleep(interval)
			if _, err := pw.Write(muxFrame("still starting\n")); err != nil {
				return
			}
		}
		pw.Close()
	}()
	return pr
}

func newManager(t *testing.T, client container.DockerClient) *container.Manager {
	t.Helper()
	manager, err := container.NewManager(container.ManagerConfig{Client: client})
	require.NoError(t, err)
	return manager
}

func expectImagePresent(m *mockDockerClient, ref string) {
	m.On("ImageList", mock.Anything, mock.Anything).Once().Return([]image.Summary{{ID: "sha256:abc"}}, nil)
}

func TestRunContainerPullsMissingImage(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	m := &mockDockerClient{}
	m.On("ImageList", mock.Anything, mock.Anything).Once().Return([]image.Summary{}, nil)
	m.On("ImagePull", mock.Anything, "redis:7", mock.Anything).Once().Return(io.NopCloser(bytes.NewReader(nil)), nil)
	m.On("ContainerCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Once().Return(dockercontainer.CreateResponse{ID: "cid1"}, nil)
	m.On("ContainerStart", mock.Anything, "cid1", mock.Anything).Once().Return(nil)

	handle, err := newManager(t, m).RunContainer(context.TODO(), model.ContainerRunConfig{
		Image:  "redis:7",
		Detach: true,
	})

	require.NoError(err)
	assert.Equal("cid1", handle.ID)
	assert.NotEmpty(handle.Name)
	m.AssertExpectations(t)
}

func TestRunContainerPullFailureIsFatal(t *testing.T) {
	require := require.New(t)

	m := &mockDockerClient{}
	m.On("ImageList", mock.Anything, mock.Anything).Once().Return([]image.Summary{}, nil)
	m.On("ImagePull", mock.Anything, "ghost:latest", mock.Anything).Once().Return(nil, errors.New("manifest unknown"))

	_, err := newManager(t, m).RunContainer(context.TODO(), model.ContainerRunConfig{
		Image:  "ghost:latest",
		Detach: true,
	})

	require.Error(err)
	require.ErrorIs(err, model.ErrImagePull)
	m.AssertExpectations(t)
}

func TestRunContainerReplacesConflictingName(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	m := &mockDockerClient{}
	expectImagePresent(m, "redis:7")
	m.On("ContainerInspect", mock.Anything, "cache").Once().Return(dockercontainer.InspectResponse{}, nil)
	m.On("ContainerRemove", mock.Anything, "cache", mock.MatchedBy(func(o dockercontainer.RemoveOptions) bool { return o.Force })).Once().Return(nil)
	m.On("ContainerCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, "cache").Once().Return(dockercontainer.CreateResponse{ID: "cid2"}, nil)
	m.On("ContainerStart", mock.Anything, "cid2", mock.Anything).Once().Return(nil)

	handle, err := newManager(t, m).RunContainer(context.TODO(), model.ContainerRunConfig{
		Image:  "redis:7",
		Name:   "cache",
		Detach: true,
	})

	require.NoError(err)
	assert.Equal("cache", handle.Name)

	// Remove must happen before create.
	assert.Equal([]string{"ImageList", "ContainerInspect", "ContainerRemove", "ContainerCreate", "ContainerStart"}, m.calls)
}

func TestRunContainerMissingNameIsNotAnError(t *testing.T) {
	require := require.New(t)

	m := &mockDockerClient{}
	expectImagePresent(m, "redis:7")
	m.On("ContainerInspect", mock.Anything, "cache").Once().Return(dockercontainer.InspectResponse{}, errNoSuchContainer)
	m.On("ContainerCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, "cache").Once().Return(dockercontainer.CreateResponse{ID: "cid3"}, nil)
	m.On("ContainerStart", mock.Anything, "cid3", mock.Anything).Once().Return(nil)

	_, err := newManager(t, m).RunContainer(context.TODO(), model.ContainerRunConfig{
		Image:  "redis:7",
		Name:   "cache",
		Detach: true,
	})

	require.NoError(err)
	m.AssertExpectations(t)
}

func TestRunContainerWaitForLogMatch(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	m := &mockDockerClient{}
	expectImagePresent(m, "postgres:16")
	m.On("ContainerCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Once().Return(dockercontainer.CreateResponse{ID: "cid4"}, nil)
	m.On("ContainerStart", mock.Anything, "cid4", mock.Anything).Once().Return(nil)
	m.On("ContainerLogs", mock.Anything, "cid4", mock.Anything).Once().Return(muxLogs(
		"starting up",
		"listening on port 5432: READY",
	), nil)

	handle, err := newManager(t, m).RunContainer(context.TODO(), model.ContainerRunConfig{
		Image:      "postgres:16",
		Detach:     true,
		WaitForLog: "READY",
	})

	require.NoError(err)
	assert.Equal("cid4", handle.ID)
	m.AssertNotCalled(t, "ContainerStop", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunContainerWaitForLogSurvivesLongLines(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	m := &mockDockerClient{}
	expectImagePresent(m, "postgres:16")
	m.On("ContainerCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Once().Return(dockercontainer.CreateResponse{ID: "cid8"}, nil)
	m.On("ContainerStart", mock.Anything, "cid8", mock.Anything).Once().Return(nil)
	m.On("ContainerLogs", mock.Anything, "cid8", mock.Anything).Once().Return(muxLogs(
		strings.Repeat("x", 200*1024), // Over the default scanner line cap.
		"listening on port 5432: READY",
	), nil)

	handle, err := newManager(t, m).RunContainer(context.TODO(), model.ContainerRunConfig{
		Image:      "postgres:16",
		Detach:     true,
		WaitForLog: "READY",
	})

	require.NoError(err)
	assert.Equal("cid8", handle.ID)
	m.AssertNotCalled(t, "ContainerStop", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunContainerWaitForLogTimeoutStopsOnce(t *testing.T) {
	require := require.New(t)

	m := &mockDockerClient{}
	expectImagePresent(m, "postgres:16")
	m.On("ContainerCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Once().Return(dockercontainer.CreateResponse{ID: "cid5"}, nil)
	m.On("ContainerStart", mock.Anything, "cid5", mock.Anything).Once().Return(nil)
	logs := endlessLogs(10 * time.Millisecond)
	defer logs.Close()
	m.On("ContainerLogs", mock.Anything, "cid5", mock.Anything).Once().Return(logs, nil)
	m.On("ContainerStop", mock.Anything, "cid5", mock.Anything).Once().Return(nil)

	_, err := newManager(t, m).RunContainer(context.TODO(), model.ContainerRunConfig{
		Image:       "postgres:16",
		Detach:      true,
		WaitForLog:  "READY",
		WaitTimeout: 50 * time.Millisecond,
	})

	require.Error(err)
	require.ErrorIs(err, model.ErrLogWaitTimeout)
	m.AssertExpectations(t) // Stop exactly once.
}

func TestRunContainerWaitForLogStreamClosed(t *testing.T) {
	require := require.New(t)

	m := &mockDockerClient{}
	expectImagePresent(m, "postgres:16")
	m.On("ContainerCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Once().Return(dockercontainer.CreateResponse{ID: "cid6"}, nil)
	m.On("ContainerStart", mock.Anything, "cid6", mock.Anything).Once().Return(nil)
	m.On("ContainerLogs", mock.Anything, "cid6", mock.Anything).Once().Return(muxLogs("crashed on boot"), nil)
	m.On("ContainerStop", mock.Anything, "cid6", mock.Anything).Once().Return(nil)

	_, err := newManager(t, m).RunContainer(context.TODO(), model.ContainerRunConfig{
		Image:      "postgres:16",
		Detach:     true,
		WaitForLog: "READY",
	})

	require.Error(err)
	require.ErrorIs(err, model.ErrStreamClosed)
	m.AssertExpectations(t)
}

func TestStopContainerIdempotent(t *testing.T) {
	require := require.New(t)

	m := &mockDockerClient{}
	m.On("ContainerStop", mock.Anything, "missing", mock.Anything).Once().Return(errNoSuchContainer)

	err := newManager(t, m).StopContainer(context.TODO(), "missing", 10*time.Second)

	require.NoError(err)
	m.AssertExpectations(t)
}

func TestListContainers(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	m := &mockDockerClient{}
	m.On("ContainerList", mock.Anything, mock.Anything).Once().Return([]dockercontainer.Summary{
		{ID: "cid7", Names: []string{"/cache"}, Image: "redis:7", Status: "Up 2 minutes"},
	}, nil)

	containers, err := newManager(t, m).ListContainers(context.TODO())

	require.NoError(err)
	require.Len(containers, 1)
	assert.Equal("cache", containers[0].Name)
	assert.Equal("redis:7", containers[0].Image)
}

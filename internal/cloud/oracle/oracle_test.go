package oracle_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/core"
	"github.com/oracle/oci-go-sdk/v65/objectstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/adsysio/adsys/internal/cloud/oracle"
	"github.com/adsysio/adsys/internal/model"
)

type mockCompute struct {
	mock.Mock
}

func (m *mockCompute) ListInstances(ctx context.Context, request core.ListInstancesRequest) (core.ListInstancesResponse, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(core.ListInstancesResponse), args.Error(1)
}

func (m *mockCompute) InstanceAction(ctx context.Context, request core.InstanceActionRequest) (core.InstanceActionResponse, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(core.InstanceActionResponse), args.Error(1)
}

func (m *mockCompute) SetRegion(region string) {
	m.Called(region)
}

type mockObjectStorage struct {
	mock.Mock
}

func (m *mockObjectStorage) GetNamespace(ctx context.Context, request objectstorage.GetNamespaceRequest) (objectstorage.GetNamespaceResponse, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(objectstorage.GetNamespaceResponse), args.Error(1)
}

func (m *mockObjectStorage) PutObject(ctx context.Context, request objectstorage.PutObjectRequest) (objectstorage.PutObjectResponse, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(objectstorage.PutObjectResponse), args.Error(1)
}

func (m *mockObjectStorage) GetObject(ctx context.Context, request objectstorage.GetObjectRequest) (objectstorage.GetObjectResponse, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(objectstorage.GetObjectResponse), args.Error(1)
}

func newProvider(t *testing.T, compute *mockCompute, storage *mockObjectStorage) *oracle.Provider {
	t.Helper()
	p, err := oracle.NewProvider(oracle.ProviderConfig{
		CompartmentID: "ocid1.tenancy.oc1..root",
		Compute:       compute,
		ObjectStorage: storage,
	})
	require.NoError(t, err)
	return p
}

func TestProviderListInstances(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	compute := &mockCompute{}
	compute.On("ListInstances", mock.Anything, core.ListInstancesRequest{
		CompartmentId: common.String("ocid1.tenancy.oc1..root"),
	}).Once().Return(core.ListInstancesResponse{
		Items: []core.Instance{
			{
				Id:             common.String("ocid1.instance.oc1..abc"),
				DisplayName:    common.String("web-1"),
				LifecycleState: core.InstanceLifecycleStateRunning,
				Shape:          common.String("VM.Standard.E4.Flex"),
				Region:         common.String("eu-frankfurt-1"),
			},
		},
	}, nil)

	instances, err := newProvider(t, compute, &mockObjectStorage{}).ListInstances(context.TODO(), "")

	require.NoError(err)
	assert.Equal([]model.Instance{{
		ID:     "ocid1.instance.oc1..abc",
		Name:   "web-1",
		State:  "RUNNING",
		Type:   "VM.Standard.E4.Flex",
		Region: "eu-frankfurt-1",
	}}, instances)
	compute.AssertExpectations(t)
}

func TestProviderListInstancesRegionOverride(t *testing.T) {
	require := require.New(t)

	compute := &mockCompute{}
	compute.On("SetRegion", "us-ashburn-1").Once()
	compute.On("ListInstances", mock.Anything, mock.Anything).Once().Return(core.ListInstancesResponse{}, nil)

	_, err := newProvider(t, compute, &mockObjectStorage{}).ListInstances(context.TODO(), "us-ashburn-1")

	require.NoError(err)
	compute.AssertExpectations(t)
}

func TestProviderStartStopInstance(t *testing.T) {
	require := require.New(t)

	compute := &mockCompute{}
	compute.On("InstanceAction", mock.Anything, core.InstanceActionRequest{
		InstanceId: common.String("ocid1.instance.oc1..abc"),
		Action:     core.InstanceActionActionStart,
	}).Once().Return(core.InstanceActionResponse{}, nil)
	compute.On("InstanceAction", mock.Anything, core.InstanceActionRequest{
		InstanceId: common.String("ocid1.instance.oc1..abc"),
		Action:     core.InstanceActionActionStop,
	}).Once().Return(core.InstanceActionResponse{}, nil)

	p := newProvider(t, compute, &mockObjectStorage{})

	require.NoError(p.StartInstance(context.TODO(), "ocid1.instance.oc1..abc"))
	require.NoError(p.StopInstance(context.TODO(), "ocid1.instance.oc1..abc"))
	compute.AssertExpectations(t)
}

func TestProviderUploadFile(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "payload.txt")
	require.NoError(os.WriteFile(path, []byte("some data"), 0o600))

	storage := &mockObjectStorage{}
	storage.On("GetNamespace", mock.Anything, mock.Anything).Once().Return(objectstorage.GetNamespaceResponse{
		Value: common.String("mynamespace"),
	}, nil)
	storage.On("PutObject", mock.Anything, mock.MatchedBy(func(req objectstorage.PutObjectRequest) bool {
		return *req.NamespaceName == "mynamespace" &&
			*req.BucketName == "backups" &&
			*req.ObjectName == "payload.txt" &&
			*req.ContentLength == int64(len("some data"))
	})).Once().Return(objectstorage.PutObjectResponse{}, nil)

	err := newProvider(t, &mockCompute{}, storage).UploadFile(context.TODO(), "backups", path, "")

	require.NoError(err)
	assert.True(storage.AssertExpectations(t))
}

func TestProviderDownloadFile(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	storage := &mockObjectStorage{}
	storage.On("GetNamespace", mock.Anything, mock.Anything).Once().Return(objectstorage.GetNamespaceResponse{
		Value: common.String("mynamespace"),
	}, nil)
	storage.On("GetObject", mock.Anything, objectstorage.GetObjectRequest{
		NamespaceName: common.String("mynamespace"),
		BucketName:    common.String("backups"),
		ObjectName:    common.String("payload.txt"),
	}).Once().Return(objectstorage.GetObjectResponse{
		Content: io.NopCloser(strings.NewReader("some data")),
	}, nil)

	path := filepath.Join(t.TempDir(), "out.txt")
	err := newProvider(t, &mockCompute{}, storage).DownloadFile(context.TODO(), "backups", "payload.txt", path)

	require.NoError(err)
	got, err := os.ReadFile(path)
	require.NoError(err)
	assert.Equal("some data", string(got))
}

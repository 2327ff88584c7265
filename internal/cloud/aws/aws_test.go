package aws_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/adsysio/adsys/internal/cloud/aws"
	"github.com/adsysio/adsys/internal/model"
)

type mockEC2 struct {
	mock.Mock
}

func (m *mockEC2) DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	args := m.Called(ctx, params)
	resp, _ := args.Get(0).(*ec2.DescribeInstancesOutput)
	return resp, args.Error(1)
}

func (m *mockEC2) StartInstances(ctx context.Context, params *ec2.StartInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error) {
	args := m.Called(ctx, params)
	resp, _ := args.Get(0).(*ec2.StartInstancesOutput)
	return resp, args.Error(1)
}

func (m *mockEC2) StopInstances(ctx context.Context, params *ec2.StopInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error) {
	args := m.Called(ctx, params)
	resp, _ := args.Get(0).(*ec2.StopInstancesOutput)
	return resp, args.Error(1)
}

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	resp, _ := args.Get(0).(*s3.PutObjectOutput)
	return resp, args.Error(1)
}

func (m *mockS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	resp, _ := args.Get(0).(*s3.GetObjectOutput)
	return resp, args.Error(1)
}

func newProvider(t *testing.T, mec2 *mockEC2, ms3 *mockS3) *aws.Provider {
	t.Helper()
	p, err := aws.NewProvider(context.TODO(), aws.ProviderConfig{
		Region: "eu-west-1",
		EC2:    mec2,
		S3:     ms3,
	})
	require.NoError(t, err)
	return p
}

func TestProviderListInstances(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	mec2 := &mockEC2{}
	mec2.On("DescribeInstances", mock.Anything, mock.Anything).Once().Return(&ec2.DescribeInstancesOutput{
		Reservations: []ec2types.Reservation{
			{Instances: []ec2types.Instance{
				{
					InstanceId:       awssdk.String("i-0abc"),
					InstanceType:     ec2types.InstanceTypeT3Micro,
					State:            &ec2types.InstanceState{Name: ec2types.InstanceStateNameRunning},
					PublicIpAddress:  awssdk.String("52.1.2.3"),
					PrivateIpAddress: awssdk.String("10.0.0.5"),
					Tags: []ec2types.Tag{
						{Key: awssdk.String("env"), Value: awssdk.String("prod")},
						{Key: awssdk.String("Name"), Value: awssdk.String("web-1")},
					},
				},
				{InstanceId: awssdk.String("i-0def")},
			}},
		},
	}, nil)

	instances, err := newProvider(t, mec2, &mockS3{}).ListInstances(context.TODO(), "")

	require.NoError(err)
	assert.Equal([]model.Instance{
		{
			ID:        "i-0abc",
			Name:      "web-1",
			State:     "running",
			Type:      "t3.micro",
			Region:    "eu-west-1",
			PublicIP:  "52.1.2.3",
			PrivateIP: "10.0.0.5",
		},
		{ID: "i-0def", Region: "eu-west-1"},
	}, instances)
	mec2.AssertExpectations(t)
}

func TestProviderStartStopInstance(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	mec2 := &mockEC2{}
	mec2.On("StartInstances", mock.Anything, &ec2.StartInstancesInput{
		InstanceIds: []string{"i-0abc"},
	}).Once().Return(&ec2.StartInstancesOutput{}, nil)
	mec2.On("StopInstances", mock.Anything, &ec2.StopInstancesInput{
		InstanceIds: []string{"i-0abc"},
	}).Once().Return(&ec2.StopInstancesOutput{}, nil)

	p := newProvider(t, mec2, &mockS3{})

	require.NoError(p.StartInstance(context.TODO(), "i-0abc"))
	require.NoError(p.StopInstance(context.TODO(), "i-0abc"))
	assert.True(mec2.AssertExpectations(t))
}

func TestProviderUploadFile(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "payload.txt")
	require.NoError(os.WriteFile(path, []byte("some data"), 0o600))

	ms3 := &mockS3{}
	ms3.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return awssdk.ToString(in.Bucket) == "backups" && awssdk.ToString(in.Key) == "payload.txt"
	})).Once().Return(&s3.PutObjectOutput{}, nil)

	// Empty object name should default to the file's base name.
	err := newProvider(t, &mockEC2{}, ms3).UploadFile(context.TODO(), "backups", path, "")

	require.NoError(err)
	assert.True(ms3.AssertExpectations(t))
}

func TestProviderDownloadFile(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	ms3 := &mockS3{}
	ms3.On("GetObject", mock.Anything, &s3.GetObjectInput{
		Bucket: awssdk.String("backups"),
		Key:    awssdk.String("payload.txt"),
	}).Once().Return(&s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader("some data")),
	}, nil)

	path := filepath.Join(t.TempDir(), "out.txt")
	err := newProvider(t, &mockEC2{}, ms3).DownloadFile(context.TODO(), "backups", "payload.txt", path)

	require.NoError(err)
	got, err := os.ReadFile(path)
	require.NoError(err)
	assert.Equal("some data", string(got))
}

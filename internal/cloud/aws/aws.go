// Package aws implements the cloud provider interface on top of the AWS SDK,
// using EC2 for compute and S3 for object storage.
package aws

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/adsysio/adsys/internal/log"
	"github.com/adsysio/adsys/internal/model"
)

// EC2Client is the subset of the EC2 API the provider uses.
type EC2Client interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	StartInstances(ctx context.Context, params *ec2.StartInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error)
	StopInstances(ctx context.Context, params *ec2.StopInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error)
}

// S3Client is the subset of the S3 API the provider uses.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ProviderConfig is the configuration of the AWS provider.
type ProviderConfig struct {
	// Region is the default AWS region. Empty falls back to the SDK's
	// standard resolution (env vars, shared config).
	Region string
	// Profile is the shared config profile name.
	Profile string
	// EC2 and S3 default to real clients built from the shared AWS config.
	EC2    EC2Client
	S3     S3Client
	Logger log.Logger
}

func (c *ProviderConfig) defaults(ctx context.Context) error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "cloud.aws.Provider"})

	if c.EC2 == nil || c.S3 == nil {
		opts := []func(*awsconfig.LoadOptions) error{}
		if c.Region != "" {
			opts = append(opts, awsconfig.WithRegion(c.Region))
		}
		if c.Profile != "" {
			opts = append(opts, awsconfig.WithSharedConfigProfile(c.Profile))
		}

		cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return fmt.Errorf("could not load AWS config: %w", err)
		}

		if c.EC2 == nil {
			c.EC2 = ec2.NewFromConfig(cfg)
		}
		if c.S3 == nil {
			c.S3 = s3.NewFromConfig(cfg)
		}
		if c.Region == "" {
			c.Region = cfg.Region
		}
	}

	return nil
}

// Provider manages EC2 instances and S3 objects.
type Provider struct {
	region string
	ec2    EC2Client
	s3     S3Client
	logger log.Logger
}

// NewProvider returns a new AWS provider.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	err := config.defaults(ctx)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Provider{
		region: config.Region,
		ec2:    config.EC2,
		s3:     config.S3,
		logger: config.Logger,
	}, nil
}

func (p *Provider) ListInstances(ctx context.Context, region string) ([]model.Instance, error) {
	if region == "" {
		region = p.region
	}

	var opts []func(*ec2.Options)
	if region != "" {
		opts = append(opts, func(o *ec2.Options) { o.Region = region })
	}

	resp, err := p.ec2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{}, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not describe instances: %w", err)
	}

	instances := []model.Instance{}
	for _, reservation := range resp.Reservations {
		for _, inst := range reservation.Instances {
			state := ""
			if inst.State != nil {
				state = string(inst.State.Name)
			}
			instances = append(instances, model.Instance{
				ID:        aws.ToString(inst.InstanceId),
				Name:      nameTag(inst.Tags),
				State:     state,
				Type:      string(inst.InstanceType),
				Region:    region,
				PublicIP:  aws.ToString(inst.PublicIpAddress),
				PrivateIP: aws.ToString(inst.PrivateIpAddress),
			})
		}
	}

	return instances, nil
}

func (p *Provider) StartInstance(ctx context.Context, instanceID string) error {
	p.logger.Infof("Starting instance %s", instanceID)

	_, err := p.ec2.StartInstances(ctx, &ec2.StartInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return fmt.Errorf("could not start instance %s: %w", instanceID, err)
	}

	return nil
}

func (p *Provider) StopInstance(ctx context.Context, instanceID string) error {
	p.logger.Infof("Stopping instance %s", instanceID)

	_, err := p.ec2.StopInstances(ctx, &ec2.StopInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return fmt.Errorf("could not stop instance %s: %w", instanceID, err)
	}

	return nil
}

func (p *Provider) UploadFile(ctx context.Context, bucket, filePath, objectName string) error {
	if objectName == "" {
		objectName = filepath.Base(filePath)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", filePath, err)
	}
	defer f.Close()

	p.logger.Infof("Uploading %s to s3://%s/%s", filePath, bucket, objectName)

	_, err = p.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectName),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("could not upload to s3://%s/%s: %w", bucket, objectName, err)
	}

	return nil
}

func (p *Provider) DownloadFile(ctx context.Context, bucket, objectName, filePath string) error {
	p.logger.Infof("Downloading s3://%s/%s to %s", bucket, objectName, filePath)

	resp, err := p.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectName),
	})
	if err != nil {
		return fmt.Errorf("could not download s3://%s/%s: %w", bucket, objectName, err)
	}
	defer resp.Body.Close()

	return writeFile(filePath, resp.Body)
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}

	return nil
}

func nameTag(tags []ec2types.Tag) string {
	for _, tag := range tags {
		if aws.ToString(tag.Key) == "Name" {
			return aws.ToString(tag.Value)
		}
	}
	return ""
}

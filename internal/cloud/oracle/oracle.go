// Package oracle implements the cloud provider interface on top of the OCI
// SDK, using core compute for instances and object storage for files.
//
// Credentials follow the standard OCI setup (`~/.oci/config` or a custom
// config file and profile).
package oracle

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/core"
	"github.com/oracle/oci-go-sdk/v65/objectstorage"

	"github.com/adsysio/adsys/internal/log"
	"github.com/adsysio/adsys/internal/model"
)

// ComputeClient is the subset of the OCI compute API the provider uses.
type ComputeClient interface {
	ListInstances(ctx context.Context, request core.ListInstancesRequest) (core.ListInstancesResponse, error)
	InstanceAction(ctx context.Context, request core.InstanceActionRequest) (core.InstanceActionResponse, error)
	SetRegion(region string)
}

// ObjectStorageClient is the subset of the OCI object storage API the
// provider uses.
type ObjectStorageClient interface {
	GetNamespace(ctx context.Context, request objectstorage.GetNamespaceRequest) (objectstorage.GetNamespaceResponse, error)
	PutObject(ctx context.Context, request objectstorage.PutObjectRequest) (objectstorage.PutObjectResponse, error)
	GetObject(ctx context.Context, request objectstorage.GetObjectRequest) (objectstorage.GetObjectResponse, error)
}

// ProviderConfig is the configuration of the OCI provider.
type ProviderConfig struct {
	// ConfigFile is the OCI config file path. Empty uses `~/.oci/config`.
	ConfigFile string
	// Profile is the config profile name. Empty uses DEFAULT.
	Profile string
	// CompartmentID scopes instance listings. Empty defaults to the
	// tenancy root compartment.
	CompartmentID string
	// Compute and ObjectStorage default to real clients built from the
	// config file.
	Compute       ComputeClient
	ObjectStorage ObjectStorageClient
	Logger        log.Logger
}

func (c *ProviderConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "cloud.oracle.Provider"})

	if c.Compute != nil && c.ObjectStorage != nil && c.CompartmentID != "" {
		return nil
	}

	provider := common.DefaultConfigProvider()
	if c.ConfigFile != "" || c.Profile != "" {
		provider = common.CustomProfileConfigProvider(c.ConfigFile, c.Profile)
	}

	if c.Compute == nil {
		compute, err := core.NewComputeClientWithConfigurationProvider(provider)
		if err != nil {
			return fmt.Errorf("could not create compute client: %w", err)
		}
		c.Compute = &compute
	}

	if c.ObjectStorage == nil {
		storage, err := objectstorage.NewObjectStorageClientWithConfigurationProvider(provider)
		if err != nil {
			return fmt.Errorf("could not create object storage client: %w", err)
		}
		c.ObjectStorage = &storage
	}

	if c.CompartmentID == "" {
		tenancy, err := provider.TenancyOCID()
		if err != nil {
			return fmt.Errorf("could not get tenancy OCID: %w", err)
		}
		c.CompartmentID = tenancy
	}

	return nil
}

// Provider manages OCI compute instances and object storage.
type Provider struct {
	compartmentID string
	compute       ComputeClient
	storage       ObjectStorageClient
	logger        log.Logger
}

// NewProvider returns a new OCI provider.
func NewProvider(config ProviderConfig) (*Provider, error) {
	err := config.defaults()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Provider{
		compartmentID: config.CompartmentID,
		compute:       config.Compute,
		storage:       config.ObjectStorage,
		logger:        config.Logger,
	}, nil
}

func (p *Provider) ListInstances(ctx context.Context, region string) ([]model.Instance, error) {
	if region != "" {
		p.compute.SetRegion(region)
	}

	p.logger.Debugf("Listing instances in compartment %s", p.compartmentID)

	resp, err := p.compute.ListInstances(ctx, core.ListInstancesRequest{
		CompartmentId: common.String(p.compartmentID),
	})
	if err != nil {
		return nil, fmt.Errorf("could not list instances: %w", err)
	}

	instances := []model.Instance{}
	for _, inst := range resp.Items {
		instances = append(instances, model.Instance{
			ID:     deref(inst.Id),
			Name:   deref(inst.DisplayName),
			State:  string(inst.LifecycleState),
			Type:   deref(inst.Shape),
			Region: deref(inst.Region),
		})
	}

	return instances, nil
}

func (p *Provider) StartInstance(ctx context.Context, instanceID string) error {
	return p.instanceAction(ctx, instanceID, core.InstanceActionActionStart)
}

func (p *Provider) StopInstance(ctx context.Context, instanceID string) error {
	return p.instanceAction(ctx, instanceID, core.InstanceActionActionStop)
}

func (p *Provider) instanceAction(ctx context.Context, instanceID string, action core.InstanceActionActionEnum) error {
	p.logger.Infof("Instance %s action %s", instanceID, action)

	_, err := p.compute.InstanceAction(ctx, core.InstanceActionRequest{
		InstanceId: common.String(instanceID),
		Action:     action,
	})
	if err != nil {
		return fmt.Errorf("could not %s instance %s: %w", action, instanceID, err)
	}

	return nil
}

func (p *Provider) UploadFile(ctx context.Context, bucket, filePath, objectName string) error {
	if objectName == "" {
		objectName = filepath.Base(filePath)
	}

	namespace, err := p.namespace(ctx)
	if err != nil {
		return err
	}

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", filePath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("could not stat %s: %w", filePath, err)
	}

	p.logger.Infof("Uploading %s to bucket %s as %s", filePath, bucket, objectName)

	_, err = p.storage.PutObject(ctx, objectstorage.PutObjectRequest{
		NamespaceName: common.String(namespace),
		BucketName:    common.String(bucket),
		ObjectName:    common.String(objectName),
		ContentLength: common.Int64(info.Size()),
		PutObjectBody: f,
	})
	if err != nil {
		return fmt.Errorf("could not upload to bucket %s: %w", bucket, err)
	}

	return nil
}

func (p *Provider) DownloadFile(ctx context.Context, bucket, objectName, filePath string) error {
	namespace, err := p.namespace(ctx)
	if err != nil {
		return err
	}

	p.logger.Infof("Downloading %s from bucket %s to %s", objectName, bucket, filePath)

	resp, err := p.storage.GetObject(ctx, objectstorage.GetObjectRequest{
		NamespaceName: common.String(namespace),
		BucketName:    common.String(bucket),
		ObjectName:    common.String(objectName),
	})
	if err != nil {
		return fmt.Errorf("could not download %s from bucket %s: %w", objectName, bucket, err)
	}
	defer resp.Content.Close()

	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", filePath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Content); err != nil {
		return fmt.Errorf("could not write %s: %w", filePath, err)
	}

	return nil
}

func (p *Provider) namespace(ctx context.Context) (string, error) {
	resp, err := p.storage.GetNamespace(ctx, objectstorage.GetNamespaceRequest{})
	if err != nil {
		return "", fmt.Errorf("could not get object storage namespace: %w", err)
	}
	return deref(resp.Value), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

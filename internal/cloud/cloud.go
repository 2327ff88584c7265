// Package cloud declares a small common surface over cloud providers,
// covering compute instance lifecycle and object storage transfers.
package cloud

import (
	"context"

	"github.com/adsysio/adsys/internal/model"
)

// Provider knows how to manage compute instances and move files in and out
// of object storage for a single cloud account.
type Provider interface {
	// ListInstances returns the compute instances visible to the account.
	// An empty region uses the provider's configured default.
	ListInstances(ctx context.Context, region string) ([]model.Instance, error)
	// StartInstance starts a stopped instance.
	StartInstance(ctx context.Context, instanceID string) error
	// StopInstance stops a running instance.
	StopInstance(ctx context.Context, instanceID string) error
	// UploadFile uploads a local file to an object storage bucket. An empty
	// object name defaults to the file's base name.
	UploadFile(ctx context.Context, bucket, filePath, objectName string) error
	// DownloadFile downloads an object from a bucket into a local file.
	DownloadFile(ctx context.Context, bucket, objectName, filePath string) error
}

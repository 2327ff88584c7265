package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/cloud"
	"github.com/adsysio/adsys/internal/cloud/aws"
	"github.com/adsysio/adsys/internal/cloud/oracle"
	"github.com/adsysio/adsys/internal/log"
)

// CloudCommand is the parent command for cloud provider subcommands.
type CloudCommand struct {
	Cmd *kingpin.CmdClause

	provider    string
	region      string
	profile     string
	compartment string
}

// NewCloudCommand returns the cloud parent command.
func NewCloudCommand(app *kingpin.Application) *CloudCommand {
	c := &CloudCommand{}

	c.Cmd = app.Command("cloud", "Manage cloud instances and object storage.")
	c.Cmd.Flag("provider", "Cloud provider.").Default("aws").EnumVar(&c.provider, "aws", "oracle")
	c.Cmd.Flag("region", "Region overriding the provider's default.").StringVar(&c.region)
	c.Cmd.Flag("profile", "Credentials profile name.").StringVar(&c.profile)
	c.Cmd.Flag("compartment", "OCI compartment OCID (oracle only).").StringVar(&c.compartment)

	return c
}

// newCloudProvider creates the provider selected by the cloud flags.
func newCloudProvider(ctx context.Context, cloudCmd *CloudCommand, logger log.Logger) (cloud.Provider, error) {
	switch cloudCmd.provider {
	case "aws":
		p, err := aws.NewProvider(ctx, aws.ProviderConfig{
			Region:  cloudCmd.region,
			Profile: cloudCmd.profile,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create AWS provider: %w", err)
		}
		return p, nil
	case "oracle":
		p, err := oracle.NewProvider(oracle.ProviderConfig{
			Profile:       cloudCmd.profile,
			CompartmentID: cloudCmd.compartment,
			Logger:        logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create OCI provider: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported cloud provider: %s", cloudCmd.provider)
	}
}

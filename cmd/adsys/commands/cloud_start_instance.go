package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/printer"
)

// CloudStartInstanceCommand starts a stopped compute instance.
type CloudStartInstanceCommand struct {
	Cmd      *kingpin.CmdClause
	rootCmd  *RootCommand
	cloudCmd *CloudCommand

	instanceID string
}

// NewCloudStartInstanceCommand returns the cloud start-instance command.
func NewCloudStartInstanceCommand(rootCmd *RootCommand, cloudCmd *CloudCommand) *CloudStartInstanceCommand {
	c := &CloudStartInstanceCommand{rootCmd: rootCmd, cloudCmd: cloudCmd}

	c.Cmd = cloudCmd.Cmd.Command("start-instance", "Start a stopped compute instance.")
	c.Cmd.Arg("instance-id", "Instance identifier.").Required().StringVar(&c.instanceID)

	return c
}

func (c CloudStartInstanceCommand) Name() string { return c.Cmd.FullCommand() }

func (c CloudStartInstanceCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	provider, err := newCloudProvider(ctx, c.cloudCmd, logger)
	if err != nil {
		return err
	}

	if err := provider.StartInstance(ctx, c.instanceID); err != nil {
		return fmt.Errorf("could not start instance: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	return p.PrintMessage(fmt.Sprintf("Instance %s starting", c.instanceID))
}

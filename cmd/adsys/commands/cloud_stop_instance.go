package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/printer"
)

// CloudStopInstanceCommand stops a running compute instance.
type CloudStopInstanceCommand struct {
	Cmd      *kingpin.CmdClause
	rootCmd  *RootCommand
	cloudCmd *CloudCommand

	instanceID string
}

// NewCloudStopInstanceCommand returns the cloud stop-instance command.
func NewCloudStopInstanceCommand(rootCmd *RootCommand, cloudCmd *CloudCommand) *CloudStopInstanceCommand {
	c := &CloudStopInstanceCommand{rootCmd: rootCmd, cloudCmd: cloudCmd}

	c.Cmd = cloudCmd.Cmd.Command("stop-instance", "Stop a running compute instance.")
	c.Cmd.Arg("instance-id", "Instance identifier.").Required().StringVar(&c.instanceID)

	return c
}

func (c CloudStopInstanceCommand) Name() string { return c.Cmd.FullCommand() }

func (c CloudStopInstanceCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	provider, err := newCloudProvider(ctx, c.cloudCmd, logger)
	if err != nil {
		return err
	}

	if err := provider.StopInstance(ctx, c.instanceID); err != nil {
		return fmt.Errorf("could not stop instance: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	return p.PrintMessage(fmt.Sprintf("Instance %s stopping", c.instanceID))
}

package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/printer"
)

// CloudListInstancesCommand lists compute instances.
type CloudListInstancesCommand struct {
	Cmd      *kingpin.CmdClause
	rootCmd  *RootCommand
	cloudCmd *CloudCommand

	format string
}

// NewCloudListInstancesCommand returns the cloud list-instances command.
func NewCloudListInstancesCommand(rootCmd *RootCommand, cloudCmd *CloudCommand) *CloudListInstancesCommand {
	c := &CloudListInstancesCommand{rootCmd: rootCmd, cloudCmd: cloudCmd}

	c.Cmd = cloudCmd.Cmd.Command("list-instances", "List compute instances.")
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c CloudListInstancesCommand) Name() string { return c.Cmd.FullCommand() }

func (c CloudListInstancesCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	provider, err := newCloudProvider(ctx, c.cloudCmd, logger)
	if err != nil {
		return err
	}

	instances, err := provider.ListInstances(ctx, c.cloudCmd.region)
	if err != nil {
		return fmt.Errorf("could not list instances: %w", err)
	}

	// Print output.
	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintInstanceList(instances); err != nil {
		return fmt.Errorf("could not print instance list: %w", err)
	}

	return nil
}

package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/printer"
)

// ContainerPsCommand lists containers.
type ContainerPsCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewContainerPsCommand returns the container ps command.
func NewContainerPsCommand(rootCmd *RootCommand, containerCmd *kingpin.CmdClause) *ContainerPsCommand {
	c := &ContainerPsCommand{rootCmd: rootCmd}

	c.Cmd = containerCmd.Command("ps", "List all containers.")
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c ContainerPsCommand) Name() string { return c.Cmd.FullCommand() }

func (c ContainerPsCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	mgr, err := newContainerManager(logger)
	if err != nil {
		return err
	}

	containers, err := mgr.ListContainers(ctx)
	if err != nil {
		return fmt.Errorf("could not list containers: %w", err)
	}

	// Print output.
	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintContainerList(containers); err != nil {
		return fmt.Errorf("could not print container list: %w", err)
	}

	return nil
}

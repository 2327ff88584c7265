package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/printer"
)

// ContainerRmCommand removes a container.
type ContainerRmCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	nameOrID string
}

// NewContainerRmCommand returns the container rm command.
func NewContainerRmCommand(rootCmd *RootCommand, containerCmd *kingpin.CmdClause) *ContainerRmCommand {
	c := &ContainerRmCommand{rootCmd: rootCmd}

	c.Cmd = containerCmd.Command("rm", "Force-remove a container.")
	c.Cmd.Arg("name-or-id", "Container name or ID.").Required().StringVar(&c.nameOrID)

	return c
}

func (c ContainerRmCommand) Name() string { return c.Cmd.FullCommand() }

func (c ContainerRmCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	mgr, err := newContainerManager(logger)
	if err != nil {
		return err
	}

	if err := mgr.RemoveContainer(ctx, c.nameOrID); err != nil {
		return fmt.Errorf("could not remove container: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	return p.PrintMessage(fmt.Sprintf("Container %s removed", c.nameOrID))
}

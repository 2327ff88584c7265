package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/printer"
)

// ContainerIPCommand prints a container's bridge network IP address.
type ContainerIPCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	nameOrID string
}

// NewContainerIPCommand returns the container ip command.
func NewContainerIPCommand(rootCmd *RootCommand, containerCmd *kingpin.CmdClause) *ContainerIPCommand {
	c := &ContainerIPCommand{rootCmd: rootCmd}

	c.Cmd = containerCmd.Command("ip", "Print a container's IP address.")
	c.Cmd.Arg("name-or-id", "Container name or ID.").Required().StringVar(&c.nameOrID)

	return c
}

func (c ContainerIPCommand) Name() string { return c.Cmd.FullCommand() }

func (c ContainerIPCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	mgr, err := newContainerManager(logger)
	if err != nil {
		return err
	}

	ip, err := mgr.ContainerIP(ctx, c.nameOrID)
	if err != nil {
		return fmt.Errorf("could not get container IP: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	return p.PrintMessage(ip)
}

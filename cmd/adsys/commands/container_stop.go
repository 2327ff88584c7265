package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/printer"
)

// ContainerStopCommand stops a running container.
type ContainerStopCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	nameOrID string
	timeout  time.Duration
	remove   bool
}

// NewContainerStopCommand returns the container stop command.
func NewContainerStopCommand(rootCmd *RootCommand, containerCmd *kingpin.CmdClause) *ContainerStopCommand {
	c := &ContainerStopCommand{rootCmd: rootCmd}

	c.Cmd = containerCmd.Command("stop", "Stop a running container.")
	c.Cmd.Arg("name-or-id", "Container name or ID.").Required().StringVar(&c.nameOrID)
	c.Cmd.Flag("timeout", "Grace period before the container is killed.").Default("10s").DurationVar(&c.timeout)
	c.Cmd.Flag("rm", "Remove the container after stopping it.").BoolVar(&c.remove)

	return c
}

func (c ContainerStopCommand) Name() string { return c.Cmd.FullCommand() }

func (c ContainerStopCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	mgr, err := newContainerManager(logger)
	if err != nil {
		return err
	}

	if err := mgr.StopContainer(ctx, c.nameOrID, c.timeout); err != nil {
		return fmt.Errorf("could not stop container: %w", err)
	}

	if c.remove {
		if err := mgr.RemoveContainer(ctx, c.nameOrID); err != nil {
			return fmt.Errorf("could not remove container: %w", err)
		}
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	return p.PrintMessage(fmt.Sprintf("Container %s stopped", c.nameOrID))
}

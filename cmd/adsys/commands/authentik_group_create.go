package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/authentik"
	"github.com/adsysio/adsys/internal/printer"
)

// AuthentikGroupCreateCommand creates an Authentik group.
type AuthentikGroupCreateCommand struct {
	Cmd          *kingpin.CmdClause
	rootCmd      *RootCommand
	authentikCmd *AuthentikCommand

	name      string
	superuser bool
}

// NewAuthentikGroupCreateCommand returns the authentik create-group command.
func NewAuthentikGroupCreateCommand(rootCmd *RootCommand, authentikCmd *AuthentikCommand) *AuthentikGroupCreateCommand {
	c := &AuthentikGroupCreateCommand{rootCmd: rootCmd, authentikCmd: authentikCmd}

	c.Cmd = authentikCmd.Cmd.Command("create-group", "Create a group.")
	c.Cmd.Arg("name", "Name of the new group.").Required().StringVar(&c.name)
	c.Cmd.Flag("superuser", "Members of the group are superusers.").BoolVar(&c.superuser)

	return c
}

func (c AuthentikGroupCreateCommand) Name() string { return c.Cmd.FullCommand() }

func (c AuthentikGroupCreateCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	client, err := newAuthentikClient(c.authentikCmd, logger)
	if err != nil {
		return err
	}

	group, err := client.CreateGroup(ctx, authentik.Group{
		Name:        c.name,
		IsSuperuser: c.superuser,
	})
	if err != nil {
		return fmt.Errorf("could not create group: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	return p.PrintMessage(fmt.Sprintf("Group %s created (%s)", group.Name, group.PK))
}

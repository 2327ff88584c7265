package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/printer"
)

// AuthentikUserDeleteCommand deletes an Authentik user.
type AuthentikUserDeleteCommand struct {
	Cmd          *kingpin.CmdClause
	rootCmd      *RootCommand
	authentikCmd *AuthentikCommand

	userPK int
}

// NewAuthentikUserDeleteCommand returns the authentik delete-user command.
func NewAuthentikUserDeleteCommand(rootCmd *RootCommand, authentikCmd *AuthentikCommand) *AuthentikUserDeleteCommand {
	c := &AuthentikUserDeleteCommand{rootCmd: rootCmd, authentikCmd: authentikCmd}

	c.Cmd = authentikCmd.Cmd.Command("delete-user", "Delete a user.")
	c.Cmd.Arg("pk", "Primary key of the user.").Required().IntVar(&c.userPK)

	return c
}

func (c AuthentikUserDeleteCommand) Name() string { return c.Cmd.FullCommand() }

func (c AuthentikUserDeleteCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	client, err := newAuthentikClient(c.authentikCmd, logger)
	if err != nil {
		return err
	}

	if err := client.DeleteUser(ctx, c.userPK); err != nil {
		return fmt.Errorf("could not delete user: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	return p.PrintMessage(fmt.Sprintf("User %d deleted", c.userPK))
}

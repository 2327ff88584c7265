package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/printer"
)

// AuthentikUserListCommand lists Authentik users.
type AuthentikUserListCommand struct {
	Cmd          *kingpin.CmdClause
	rootCmd      *RootCommand
	authentikCmd *AuthentikCommand

	search string
	format string
}

// NewAuthentikUserListCommand returns the authentik list-users command.
func NewAuthentikUserListCommand(rootCmd *RootCommand, authentikCmd *AuthentikCommand) *AuthentikUserListCommand {
	c := &AuthentikUserListCommand{rootCmd: rootCmd, authentikCmd: authentikCmd}

	c.Cmd = authentikCmd.Cmd.Command("list-users", "List users.")
	c.Cmd.Flag("search", "Filter users by a search term.").StringVar(&c.search)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c AuthentikUserListCommand) Name() string { return c.Cmd.FullCommand() }

func (c AuthentikUserListCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	client, err := newAuthentikClient(c.authentikCmd, logger)
	if err != nil {
		return err
	}

	users, err := client.ListUsers(ctx, c.search)
	if err != nil {
		return fmt.Errorf("could not list users: %w", err)
	}

	// Print output.
	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintUserList(users); err != nil {
		return fmt.Errorf("could not print user list: %w", err)
	}

	return nil
}

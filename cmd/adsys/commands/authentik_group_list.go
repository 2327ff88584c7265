package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/printer"
)

// AuthentikGroupListCommand lists Authentik groups.
type AuthentikGroupListCommand struct {
	Cmd          *kingpin.CmdClause
	rootCmd      *RootCommand
	authentikCmd *AuthentikCommand

	search string
	format string
}

// NewAuthentikGroupListCommand returns the authentik list-groups command.
func NewAuthentikGroupListCommand(rootCmd *RootCommand, authentikCmd *AuthentikCommand) *AuthentikGroupListCommand {
	c := &AuthentikGroupListCommand{rootCmd: rootCmd, authentikCmd: authentikCmd}

	c.Cmd = authentikCmd.Cmd.Command("list-groups", "List groups.")
	c.Cmd.Flag("search", "Filter groups by a search term.").StringVar(&c.search)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c AuthentikGroupListCommand) Name() string { return c.Cmd.FullCommand() }

func (c AuthentikGroupListCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	client, err := newAuthentikClient(c.authentikCmd, logger)
	if err != nil {
		return err
	}

	groups, err := client.ListGroups(ctx, c.search)
	if err != nil {
		return fmt.Errorf("could not list groups: %w", err)
	}

	// Print output.
	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintGroupList(groups); err != nil {
		return fmt.Errorf("could not print group list: %w", err)
	}

	return nil
}

package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/printer"
	"github.com/adsysio/adsys/internal/storage/sqlite"
)

// RunHistoryCommand lists the most recent recorded executions.
type RunHistoryCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	limit  int
	format string
}

// NewRunHistoryCommand returns the run history command.
func NewRunHistoryCommand(rootCmd *RootCommand, runCmd *kingpin.CmdClause) *RunHistoryCommand {
	c := &RunHistoryCommand{rootCmd: rootCmd}

	c.Cmd = runCmd.Command("history", "List recorded executions, most recent first.")
	c.Cmd.Flag("limit", "Maximum number of executions to list.").Default("20").IntVar(&c.limit)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c RunHistoryCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunHistoryCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}

	executions, err := repo.ListExecutions(ctx, c.limit)
	if err != nil {
		return fmt.Errorf("could not list executions: %w", err)
	}

	// Print output.
	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintExecutionList(executions); err != nil {
		return fmt.Errorf("could not print execution list: %w", err)
	}

	return nil
}

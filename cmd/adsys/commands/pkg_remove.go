package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/printer"
)

// PkgRemoveCommand uninstalls system packages.
type PkgRemoveCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	packages []string
	manager  string
}

// NewPkgRemoveCommand returns the pkg remove command.
func NewPkgRemoveCommand(rootCmd *RootCommand, pkgCmd *kingpin.CmdClause) *PkgRemoveCommand {
	c := &PkgRemoveCommand{rootCmd: rootCmd}

	c.Cmd = pkgCmd.Command("remove", "Uninstall system packages.")
	c.Cmd.Arg("packages", "Packages to remove.").Required().StringsVar(&c.packages)
	c.Cmd.Flag("manager", "Package manager to use.").Default("auto").EnumVar(&c.manager, "auto", "apt", "dnf")

	return c
}

func (c PkgRemoveCommand) Name() string { return c.Cmd.FullCommand() }

func (c PkgRemoveCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	mgr, err := newPackageManager(c.manager, logger)
	if err != nil {
		return err
	}

	if err := mgr.Uninstall(ctx, c.packages); err != nil {
		return fmt.Errorf("could not remove packages: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	return p.PrintMessage(fmt.Sprintf("Removed: %v", c.packages))
}

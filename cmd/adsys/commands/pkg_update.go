package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/printer"
)

// PkgUpdateCommand refreshes the package repository lists.
type PkgUpdateCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	manager string
}

// NewPkgUpdateCommand returns the pkg update command.
func NewPkgUpdateCommand(rootCmd *RootCommand, pkgCmd *kingpin.CmdClause) *PkgUpdateCommand {
	c := &PkgUpdateCommand{rootCmd: rootCmd}

	c.Cmd = pkgCmd.Command("update", "Refresh the package repository lists.")
	c.Cmd.Flag("manager", "Package manager to use.").Default("auto").EnumVar(&c.manager, "auto", "apt", "dnf")

	return c
}

func (c PkgUpdateCommand) Name() string { return c.Cmd.FullCommand() }

func (c PkgUpdateCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	mgr, err := newPackageManager(c.manager, logger)
	if err != nil {
		return err
	}

	if err := mgr.Update(ctx); err != nil {
		return fmt.Errorf("could not update package lists: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	return p.PrintMessage("Package lists updated")
}

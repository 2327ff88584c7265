package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adsysio/adsys/internal/printer"
)

// PkgInstallCommand installs system packages.
type PkgInstallCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	packages []string
	manager  string
	update   bool
}

// NewPkgInstallCommand returns the pkg install command.
func NewPkgInstallCommand(rootCmd *RootCommand, pkgCmd *kingpin.CmdClause) *PkgInstallCommand {
	c := &PkgInstallCommand{rootCmd: rootCmd}

	c.Cmd = pkgCmd.Command("install", "Install system packages, skipping the ones already present.")
	c.Cmd.Arg("packages", "Packages to install.").Required().StringsVar(&c.packages)
	c.Cmd.Flag("manager", "Package manager to use.").Default("auto").EnumVar(&c.manager, "auto", "apt", "dnf")
	c.Cmd.Flag("update", "Refresh the package repository lists first.").BoolVar(&c.update)

	return c
}

func (c PkgInstallCommand) Name() string { return c.Cmd.FullCommand() }

func (c PkgInstallCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	mgr, err := newPackageManager(c.manager, logger)
	if err != nil {
		return err
	}

	if err := mgr.Install(ctx, c.packages, c.update); err != nil {
		return fmt.Errorf("could not install packages: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	return p.PrintMessage(fmt.Sprintf("Installed: %v", c.packages))
}

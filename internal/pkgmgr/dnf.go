package pkgmgr

import (
	"context"
	"fmt"

	"github.com/adsysio/adsys/internal/log"
	"github.com/adsysio/adsys/internal/model"
	"github.com/adsysio/adsys/internal/shell"
)

// DnfConfig is the configuration for the dnf package manager.
type DnfConfig struct {
	Runner shell.Runner
	Logger log.Logger
	// UseSudo forces or disables the sudo prefix. Nil auto-detects.
	UseSudo *bool
}

func (c *DnfConfig) defaults() error {
	if c.Runner == nil {
		executor, err := shell.NewExecutor(shell.ExecutorConfig{Logger: c.Logger})
		if err != nil {
			return fmt.Errorf("could not create executor: %w", err)
		}
		c.Runner = executor
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "pkgmgr.Dnf"})
	if c.UseSudo == nil {
		sudo := needsSudo()
		c.UseSudo = &sudo
	}
	return nil
}

// Dnf is the DNF (RHEL/Fedora/Oracle Linux) package manager implementation.
type Dnf struct {
	runner  shell.Runner
	logger  log.Logger
	useSudo bool
}

// Interface assertion.
var _ Manager = &Dnf{}

// NewDnf creates a new dnf package manager.
func NewDnf(cfg DnfConfig) (*Dnf, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Dnf{
		runner:  cfg.Runner,
		logger:  cfg.Logger,
		useSudo: *cfg.UseSudo,
	}, nil
}

func (d *Dnf) Install(ctx context.Context, packages []string, update bool) error {
	toInstall, err := d.missing(ctx, packages)
	if err != nil {
		return err
	}
	if len(toInstall) == 0 {
		d.logger.Infof("All packages already installed: %v", packages)
		return nil
	}

	if update {
		if err := d.Update(ctx); err != nil {
			return err
		}
	}

	d.logger.Infof("Installing packages: %v", toInstall)
	argv := sudoPrefix(d.useSudo, append([]string{"dnf", "install", "-y"}, toInstall...))
	if _, err := d.runner.Run(ctx, shell.Request{Argv: argv, Check: true}); err != nil {
		return fmt.Errorf("could not install packages %v: %w", toInstall, err)
	}
	return nil
}

func (d *Dnf) Uninstall(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return nil
	}

	d.logger.Infof("Uninstalling packages: %v", packages)
	argv := sudoPrefix(d.useSudo, append([]string{"dnf", "remove", "-y"}, packages...))
	if _, err := d.runner.Run(ctx, shell.Request{Argv: argv, Check: true}); err != nil {
		return fmt.Errorf("could not uninstall packages %v: %w", packages, err)
	}
	return nil
}

func (d *Dnf) IsInstalled(ctx context.Context, pkg string) (bool, error) {
	result, err := d.runner.Run(ctx, shell.Request{Argv: []string{"rpm", "-q", pkg}})
	if err != nil {
		return false, fmt.Errorf("could not query package %s: %w", pkg, err)
	}
	return result.OK(), nil
}

func (d *Dnf) Update(ctx context.Context) error {
	d.logger.Infof("Checking for package updates...")

	// dnf check-update exits 100 when updates are available, 0 when there is
	// nothing to do and 1 on error.
	argv := sudoPrefix(d.useSudo, []string{"dnf", "check-update"})
	result, err := d.runner.Run(ctx, shell.Request{Argv: argv})
	if err != nil {
		return fmt.Errorf("could not check for updates: %w", err)
	}
	if result.ExitCode != 0 && result.ExitCode != 100 {
		return &model.CommandError{Result: *result}
	}
	return nil
}

func (d *Dnf) missing(ctx context.Context, packages []string) ([]string, error) {
	var missing []string
	for _, pkg := range packages {
		installed, err := d.IsInstalled(ctx, pkg)
		if err != nil {
			return nil, err
		}
		if !installed {
			missing = append(missing, pkg)
		}
	}
	return missing, nil
}

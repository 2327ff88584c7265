package pkgmgr

import (
	"context"
	"fmt"

	"github.com/adsysio/adsys/internal/log"
	"github.com/adsysio/adsys/internal/shell"
)

// AptConfig is the configuration for the apt package manager.
type AptConfig struct {
	Runner shell.Runner
	Logger log.Logger
	// UseSudo forces or disables the sudo prefix. Nil auto-detects.
	UseSudo *bool
}

func (c *AptConfig) defaults() error {
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "pkgmgr.Apt"})
	if c.UseSudo == nil {
		sudo := needsSudo()
		c.UseSudo = &sudo
	}
	return nil
}

// Apt is the APT (Debian/Ubuntu) package manager implementation.
type Apt struct {
	runner  shell.Runner
	logger  log.Logger
	useSudo bool
}

// Interface assertion.
var _ Manager = &Apt{}

// NewApt creates a new apt package manager.
func NewApt(cfg AptConfig) (*Apt, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Apt{
		runner:  cfg.Runner,
		logger:  cfg.Logger,
		useSudo: *cfg.UseSudo,
	}, nil
}

var aptNoninteractive = map[string]string{"DEBIAN_FRONTEND": "noninteractive"}

func (a *Apt) Install(ctx context.Context, packages []string, update bool) error {
	toInstall, err := a.missing(ctx, packages)
	if err != nil {
		return err
	}
	if len(toInstall) == 0 {
		a.logger.Infof("All packages already installed: %v", packages)
		return nil
	}

	if update {
		if err := a.Update(ctx); err != nil {
			return err
		}
	}

	a.logger.Infof("Installing packages: %v", toInstall)
	argv := sudoPrefix(a.useSudo, append([]string{"apt-get", "install", "-y"}, toInstall...))
	if _, err := a.runner.Run(ctx, shell.Request{Argv: argv, Env: aptNoninteractive, Check: true}); err != nil {
		return fmt.Errorf("could not install packages %v: %w", toInstall, err)
	}
	return nil
}

func (a *Apt) Uninstall(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return nil
	}

	a.logger.Infof("Uninstalling packages: %v", packages)
	argv := sudoPrefix(a.useSudo, append([]string{"apt-get", "remove", "-y"}, packages...))
	if _, err := a.runner.Run(ctx, shell.Request{Argv: argv, Env: aptNoninteractive, Check: true}); err != nil {
		return fmt.Errorf("could not uninstall packages %v: %w", packages, err)
	}
	return nil
}

func (a *Apt) IsInstalled(ctx context.Context, pkg string) (bool, error) {
	// dpkg -s exits 0 when the package is installed.
	result, err := a.runner.Run(ctx, shell.Request{Argv: []string{"dpkg", "-s", pkg}})
	if err != nil {
		return false, fmt.Errorf("could not query package %s: %w", pkg, err)
	}
	return result.OK(), nil
}

func (a *Apt) Update(ctx context.Context) error {
	a.logger.Infof("Updating apt package lists...")
	argv := sudoPrefix(a.useSudo, []string{"apt-get", "update"})
	if _, err := a.runner.Run(ctx, shell.Request{Argv: argv, Env: aptNoninteractive, Check: true}); err != nil {
		return fmt.Errorf("could not update apt lists: %w", err)
	}
	return nil
}

func (a *Apt) missing(ctx context.Context, packages []string) ([]string, error) {
	var missing []string
	for _, pkg := range packages {
		installed, err := a.IsInstalled(ctx, pkg)
		if err != nil {
			return nil, err
		}
		if !installed {
			missing = append(missing, pkg)
		}
	}
	return missing, nil
}

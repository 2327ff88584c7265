package lib

import (
	"context"
	"fmt"

	"github.com/adsysio/adsys/internal/pkgmgr"
)

// InstallPackages installs system packages with the host's package manager
// (apt or dnf, auto-detected). Already-installed packages are skipped. With
// update set the package lists are refreshed first.
func (c *Client) InstallPackages(ctx context.Context, packages []string, update bool) error {
	mgr, err := c.packageManager()
	if err != nil {
		return err
	}
	return mapError(mgr.Install(ctx, packages, update))
}

// RemovePackages uninstalls system packages.
func (c *Client) RemovePackages(ctx context.Context, packages []string) error {
	mgr, err := c.packageManager()
	if err != nil {
		return err
	}
	return mapError(mgr.Uninstall(ctx, packages))
}

// PackageInstalled reports whether a package is installed.
func (c *Client) PackageInstalled(ctx context.Context, pkg string) (bool, error) {
	mgr, err := c.packageManager()
	if err != nil {
		return false, err
	}

	installed, err := mgr.IsInstalled(ctx, pkg)
	if err != nil {
		return false, mapError(err)
	}
	return installed, nil
}

func (c *Client) packageManager() (pkgmgr.Manager, error) {
	name, err := pkgmgr.Detect()
	if err != nil {
		return nil, mapError(err)
	}

	switch name {
	case "apt":
		return pkgmgr.NewApt(pkgmgr.AptConfig{Runner: c.executor, Logger: c.logger})
	case "dnf":
		return pkgmgr.NewDnf(pkgmgr.DnfConfig{Runner: c.executor, Logger: c.logger})
	default:
		return nil, fmt.Errorf("unsupported package manager: %s", name)
	}
}

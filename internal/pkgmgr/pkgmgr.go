// Package pkgmgr wraps the system package managers (apt, dnf) behind a
// common interface.
package pkgmgr

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/adsysio/adsys/internal/model"
)

// Manager is the interface for system package managers.
type Manager interface {
	// Install installs the packages, optionally refreshing the package lists
	// first. Already-installed packages are skipped.
	Install(ctx context.Context, packages []string, update bool) error
	// Uninstall removes the packages.
	Uninstall(ctx context.Context, packages []string) error
	// IsInstalled reports whether a package is installed.
	IsInstalled(ctx context.Context, pkg string) (bool, error)
	// Update refreshes the package repository lists.
	Update(ctx context.Context) error
}

// Detect returns the package manager available on this host.
func Detect() (string, error) {
	if _, err := exec.LookPath("apt-get"); err == nil {
		return "apt", nil
	}
	if _, err := exec.LookPath("dnf"); err == nil {
		return "dnf", nil
	}
	return "", fmt.Errorf("no supported package manager found: %w", model.ErrNotFound)
}

// needsSudo reports whether commands must be prefixed with sudo: we are not
// root and sudo is available.
func needsSudo() bool {
	if os.Geteuid() == 0 {
		return false
	}
	_, err := exec.LookPath("sudo")
	return err == nil
}

// sudoPrefix prepends sudo to the command when needed.
func sudoPrefix(useSudo bool, argv []string) []string {
	if !useSudo {
		return argv
	}
	return append([]string{"sudo"}, argv...)
}

package commands

import (
	"fmt"

	"github.com/adsysio/adsys/internal/log"
	"github.com/adsysio/adsys/internal/pkgmgr"
)

// newPackageManager creates the package manager selected by the flag,
// auto-detecting the host's manager when set to auto.
func newPackageManager(manager string, logger log.Logger) (pkgmgr.Manager, error) {
	if manager == "auto" {
		detected, err := pkgmgr.Detect()
		if err != nil {
			return nil, fmt.Errorf("could not detect package manager: %w", err)
		}
		manager = detected
	}

	switch manager {
	case "apt":
		m, err := pkgmgr.NewApt(pkgmgr.AptConfig{Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("could not create apt manager: %w", err)
		}
		return m, nil
	case "dnf":
		m, err := pkgmgr.NewDnf(pkgmgr.DnfConfig{Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("could not create dnf manager: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported package manager: %s", manager)
	}
}

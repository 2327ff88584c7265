package commands

import (
	"fmt"

	"github.com/adsysio/adsys/internal/container"
	"github.com/adsysio/adsys/internal/log"
)

// newContainerManager creates a container manager backed by the host's
// Docker daemon.
func newContainerManager(logger log.Logger) (*container.Manager, error) {
	mgr, err := container.NewManager(container.ManagerConfig{
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create container manager: %w", err)
	}
	return mgr, nil
}

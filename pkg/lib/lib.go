package lib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adsysio/adsys/internal/container"
	"github.com/adsysio/adsys/internal/log"
	"github.com/adsysio/adsys/internal/shell"
	"github.com/adsysio/adsys/internal/storage"
	"github.com/adsysio/adsys/internal/storage/sqlite"
)

const (
	defaultDataDir = ".adsys"
	defaultDBFile  = "adsys.db"
)

// Config configures the SDK client.
//
// All fields are optional and have sensible defaults. At minimum, an empty
// Config{} will use ~/.adsys/adsys.db for the execution history.
type Config struct {
	// DBPath is the SQLite database path for the execution history.
	// Default: ~/.adsys/adsys.db.
	DBPath string

	// RecordHistory records every Exec invocation in the history database.
	RecordHistory bool

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not get user home dir: %w", err)
		}
		c.DBPath = filepath.Join(home, defaultDataDir, defaultDBFile)
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the main SDK entry point.
//
// Create a Client with [New] and release its resources with [Client.Close].
// A Client is safe for concurrent use.
type Client struct {
	executor      shell.Runner
	repo          storage.ExecutionRepository
	logger        log.Logger
	recordHistory bool
	closeFn       func() error

	containersOnce sync.Once
	containersErr  error
	containers     *container.Manager
}

// New creates a new SDK client backed by a SQLite history database.
//
// The caller must call [Client.Close] when done to release the database
// connection. Typically used with defer:
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: cfg.DBPath,
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}

	executor, err := shell.NewExecutor(shell.ExecutorConfig{Logger: cfg.Logger})
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("could not create executor: %w", err)
	}

	return &Client{
		executor:      executor,
		repo:          repo,
		logger:        cfg.Logger,
		recordHistory: cfg.RecordHistory,
		closeFn:       repo.Close,
	}, nil
}

// Close releases the client's resources.
func (c *Client) Close() error {
	if c.closeFn == nil {
		return nil
	}
	return c.closeFn()
}

// containerManager creates the Docker-backed container manager on first use,
// so clients that never touch containers do not need a Docker daemon.
func (c *Client) containerManager() (*container.Manager, error) {
	c.containersOnce.Do(func() {
		mgr, err := container.NewManager(container.ManagerConfig{Logger: c.logger})
		if err != nil {
			c.containersErr = fmt.Errorf("could not create container manager: %w", err)
			return
		}
		c.containers = mgr
	})
	return c.containers, c.containersErr
}

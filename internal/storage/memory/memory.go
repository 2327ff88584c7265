package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/adsysio/adsys/internal/log"
	"github.com/adsysio/adsys/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.ExecutionRepository.
type Repository struct {
	executions map[string]model.Execution
	mu         sync.RWMutex
	logger     log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		executions: make(map[string]model.Execution),
		logger:     cfg.Logger,
	}, nil
}

// CreateExecution records a new execution.
func (r *Repository) CreateExecution(ctx context.Context, e model.Execution) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid execution: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.executions[e.ID]; ok {
		return fmt.Errorf("execution with id %s: %w", e.ID, model.ErrAlreadyExists)
	}

	r.executions[e.ID] = e
	r.logger.Debugf("Created execution in repository: %s", e.ID)

	return nil
}

// GetExecution retrieves an execution by ID.
func (r *Repository) GetExecution(ctx context.Context, id string) (*model.Execution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	execution, ok := r.executions[id]
	if !ok {
		return nil, fmt.Errorf("execution %s: %w", id, model.ErrNotFound)
	}

	executionCopy := execution
	return &executionCopy, nil
}

// ListExecutions returns the most recent executions, newest first. A limit
// of zero returns all of them.
func (r *Repository) ListExecutions(ctx context.Context, limit int) ([]model.Execution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	executions := make([]model.Execution, 0, len(r.executions))
	for _, e := range r.executions {
		executions = append(executions, e)
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].CreatedAt.After(executions[j].CreatedAt)
	})

	if limit > 0 && len(executions) > limit {
		executions = executions[:limit]
	}

	return executions, nil
}

package storage

import (
	"context"

	"github.com/adsysio/adsys/internal/model"
)

// ExecutionRepository is the interface for command execution history
// persistence.
type ExecutionRepository interface {
	CreateExecution(ctx context.Context, e model.Execution) error
	GetExecution(ctx context.Context, id string) (*model.Execution, error)
	ListExecutions(ctx context.Context, limit int) ([]model.Execution, error)
}

package memory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsysio/adsys/internal/model"
	"github.com/adsysio/adsys/internal/storage/memory"
)

func newRepo(t *testing.T) *memory.Repository {
	t.Helper()
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)
	return repo
}

func TestRepositoryCreateAndGetExecution(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	repo := newRepo(t)
	execution := model.Execution{
		ID:        "exec-1",
		Command:   "echo hello",
		CreatedAt: time.Now().UTC(),
	}

	require.NoError(repo.CreateExecution(context.Background(), execution))

	got, err := repo.GetExecution(context.Background(), "exec-1")
	require.NoError(err)
	assert.Equal(execution, *got)

	err = repo.CreateExecution(context.Background(), execution)
	require.ErrorIs(err, model.ErrAlreadyExists)
}

func TestRepositoryListExecutionsOrderAndLimit(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	repo := newRepo(t)
	base := time.Now().UTC()
	for i := 0; i < 4; i++ {
		require.NoError(repo.CreateExecution(context.Background(), model.Execution{
			ID:        fmt.Sprintf("exec-%d", i),
			Command:   "true",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	executions, err := repo.ListExecutions(context.Background(), 2)

	require.NoError(err)
	require.Len(executions, 2)
	assert.Equal("exec-3", executions[0].ID)
	assert.Equal("exec-2", executions[1].ID)
}

func TestRepositoryGetExecutionMissing(t *testing.T) {
	require := require.New(t)

	_, err := newRepo(t).GetExecution(context.Background(), "missing")

	require.ErrorIs(err, model.ErrNotFound)
}

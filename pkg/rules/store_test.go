package rules

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/salesdeck/automation/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	mu    sync.Mutex
	calls int
	rules map[string][]models.WorkflowRule
	err   error
}

func (r *countingRepo) ActiveRulesByOwner(_ context.Context, ownerID string) ([]models.WorkflowRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++

	if r.err != nil {
		return nil, r.err
	}

	return r.rules[ownerID], nil
}

func (r *countingRepo) RuleByID(_ context.Context, _ string) (*models.WorkflowRule, error) {
	return nil, nil
}

func (r *countingRepo) SaveRule(_ context.Context, _ *models.WorkflowRule) error {
	return nil
}

func (r *countingRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.calls
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestLoadCachesPerOwner(t *testing.T) {
	repo := &countingRepo{rules: map[string][]models.WorkflowRule{
		"user-1": {{ID: "rule-1", OwnerID: "user-1"}},
		"user-2": {{ID: "rule-2", OwnerID: "user-2"}},
	}}

	store := NewStore(repo, testLogger())
	ctx := context.Background()

	loaded, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "rule-1", loaded[0].ID)
	assert.Equal(t, 1, repo.callCount())

	// Second load hits the cache.
	_, err = store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.callCount())

	// Different owner misses.
	loaded, err = store.Load(ctx, "user-2")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 2, repo.callCount())
}

func TestReloadInvalidatesCache(t *testing.T) {
	repo := &countingRepo{rules: map[string][]models.WorkflowRule{
		"user-1": {{ID: "rule-1", OwnerID: "user-1"}},
	}}

	store := NewStore(repo, testLogger())
	ctx := context.Background()

	_, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.callCount())

	store.Reload()

	_, err = store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.callCount())
}

func TestLoadPropagatesRepositoryErrors(t *testing.T) {
	repo := &countingRepo{err: errors.New("connection refused")}

	store := NewStore(repo, testLogger())

	_, err := store.Load(context.Background(), "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	// Errors are not cached.
	_, _ = store.Load(context.Background(), "user-1")
	assert.Equal(t, 2, repo.callCount())
}

func TestLoadOwnerWithNoRules(t *testing.T) {
	repo := &countingRepo{rules: map[string][]models.WorkflowRule{}}

	store := NewStore(repo, testLogger())

	loaded, err := store.Load(context.Background(), "user-9")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

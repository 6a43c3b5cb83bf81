package file

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/salesdeck/automation/pkg/models"
	"github.com/salesdeck/automation/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPersistence(t *testing.T) *Persistence {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	p, err := NewPersistence(t.TempDir(), logger)
	require.NoError(t, err)

	return p
}

func TestSaveAndLoadRule(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	rule := &models.WorkflowRule{
		OwnerID:     "user-1",
		Name:        "Notify on big deals",
		TriggerType: models.TriggerRecordCreated,
		TriggerConditions: models.ConditionTree{
			"record.value": map[string]any{"$gt": float64(10000)},
		},
		ActionType: "send_notification",
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	}

	require.NoError(t, p.SaveRule(ctx, rule))
	require.NotEmpty(t, rule.ID)

	loaded, err := p.RuleByID(ctx, rule.ID)
	require.NoError(t, err)

	assert.Equal(t, rule.Name, loaded.Name)
	assert.Equal(t, rule.TriggerConditions, loaded.TriggerConditions)
}

func TestRuleByIDNotFound(t *testing.T) {
	p := newTestPersistence(t)

	_, err := p.RuleByID(context.Background(), "missing")
	assert.True(t, persistence.IsRuleNotFound(err))
}

func TestActiveRulesByOwnerFiltersAndSorts(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	base := time.Now().UTC()

	newer := &models.WorkflowRule{ID: "r-newer", OwnerID: "user-1", IsActive: true, CreatedAt: base.Add(time.Hour)}
	older := &models.WorkflowRule{ID: "r-older", OwnerID: "user-1", IsActive: true, CreatedAt: base}
	inactive := &models.WorkflowRule{ID: "r-off", OwnerID: "user-1", IsActive: false, CreatedAt: base}
	other := &models.WorkflowRule{ID: "r-other", OwnerID: "user-2", IsActive: true, CreatedAt: base}

	for _, rule := range []*models.WorkflowRule{newer, older, inactive, other} {
		require.NoError(t, p.SaveRule(ctx, rule))
	}

	rules, err := p.ActiveRulesByOwner(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, "r-older", rules[0].ID)
	assert.Equal(t, "r-newer", rules[1].ID)
}

func TestSaveAndLoadExecution(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	record := models.NewExecutionRecord(
		models.WorkflowRule{ID: "rule-1", OwnerID: "user-1"},
		models.TriggerEvent{Type: models.TriggerRecordCreated, OwnerID: "user-1", Payload: map[string]any{"domain": "deal"}},
	)

	require.NoError(t, p.SaveExecution(ctx, record))

	loaded, err := p.ExecutionByID(ctx, record.ID)
	require.NoError(t, err)

	assert.Equal(t, record.WorkflowID, loaded.WorkflowID)
	assert.Equal(t, models.ExecutionStatusPending, loaded.Status)

	// Transition and re-save overwrites the row.
	require.NoError(t, record.MarkRunning())
	require.NoError(t, record.Complete(map[string]any{"done": true}))
	require.NoError(t, p.SaveExecution(ctx, record))

	loaded, err = p.ExecutionByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, loaded.Status)
}

func TestExecutionByIDNotFound(t *testing.T) {
	p := newTestPersistence(t)

	_, err := p.ExecutionByID(context.Background(), "missing")
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestExecutionsByOwnerPagination(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	base := time.Now().UTC()

	for i := range 5 {
		record := &models.ExecutionRecord{
			OwnerID:   "user-1",
			Status:    models.ExecutionStatusSuccess,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, p.SaveExecution(ctx, record))
	}

	// Newest first.
	page, err := p.ExecutionsByOwner(ctx, "user-1", 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, page[0].StartedAt.After(page[1].StartedAt))

	rest, err := p.ExecutionsByOwner(ctx, "user-1", 10, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 3)

	beyond, err := p.ExecutionsByOwner(ctx, "user-1", 10, 99)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestHealthCheck(t *testing.T) {
	p := newTestPersistence(t)

	assert.NoError(t, p.HealthCheck(context.Background()))
	assert.NoError(t, p.Close(context.Background()))
}

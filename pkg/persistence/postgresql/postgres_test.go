//go:build integration
// +build integration

package postgresql

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/salesdeck/automation/pkg/models"
	"github.com/salesdeck/automation/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func TestMain(m *testing.M) {
	code := m.Run()

	if postgresContainer != nil {
		_ = postgresContainer.Terminate(context.Background())
	}

	os.Exit(code)
}

func setupTestDB(t *testing.T) (*Persistence, context.Context) {
	t.Helper()

	ctx := context.Background()

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error
		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("automation_test"),
			postgres.WithUsername("automation"),
			postgres.WithPassword("automation"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := NewPersistence(ctx, databaseURL, logger)
	require.NoError(t, err)

	cleanupDB(t, databaseURL)

	return p, ctx
}

func cleanupDB(t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer db.Close()

	_, err = db.ExecContext(context.Background(), "TRUNCATE TABLE workflow_rules, execution_records")
	require.NoError(t, err)
}

func TestRuleRoundTrip(t *testing.T) {
	p, ctx := setupTestDB(t)
	defer p.Close(ctx)

	rule := &models.WorkflowRule{
		OwnerID:     "user-1",
		Name:        "Notify on big deals",
		TriggerType: models.TriggerRecordCreated,
		TriggerConditions: models.ConditionTree{
			"record.value": map[string]any{"$gt": float64(10000)},
		},
		ActionType:   "send_notification",
		ActionConfig: map[string]any{"user_id": "user-1", "title": "Big deal"},
		IsActive:     true,
	}

	require.NoError(t, p.SaveRule(ctx, rule))
	require.NotEmpty(t, rule.ID)

	loaded, err := p.RuleByID(ctx, rule.ID)
	require.NoError(t, err)

	assert.Equal(t, rule.Name, loaded.Name)
	assert.Equal(t, rule.TriggerConditions, loaded.TriggerConditions)
	assert.Equal(t, rule.ActionConfig, loaded.ActionConfig)

	// Upsert updates in place.
	rule.Name = "Renamed"
	require.NoError(t, p.SaveRule(ctx, rule))

	loaded, err = p.RuleByID(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", loaded.Name)
}

func TestRuleByIDNotFound(t *testing.T) {
	p, ctx := setupTestDB(t)
	defer p.Close(ctx)

	_, err := p.RuleByID(ctx, "00000000-0000-0000-0000-000000000000")
	assert.True(t, persistence.IsRuleNotFound(err))
}

func TestActiveRulesByOwnerFilters(t *testing.T) {
	p, ctx := setupTestDB(t)
	defer p.Close(ctx)

	active := &models.WorkflowRule{OwnerID: "user-1", Name: "on", TriggerType: "record_created", ActionType: "a", IsActive: true}
	inactive := &models.WorkflowRule{OwnerID: "user-1", Name: "off", TriggerType: "record_created", ActionType: "a", IsActive: false}
	other := &models.WorkflowRule{OwnerID: "user-2", Name: "other", TriggerType: "record_created", ActionType: "a", IsActive: true}

	for _, rule := range []*models.WorkflowRule{active, inactive, other} {
		require.NoError(t, p.SaveRule(ctx, rule))
	}

	rules, err := p.ActiveRulesByOwner(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "on", rules[0].Name)
}

func TestExecutionRoundTrip(t *testing.T) {
	p, ctx := setupTestDB(t)
	defer p.Close(ctx)

	rule := &models.WorkflowRule{OwnerID: "user-1", Name: "r", TriggerType: "record_created", ActionType: "a", IsActive: true}
	require.NoError(t, p.SaveRule(ctx, rule))

	record := models.NewExecutionRecord(*rule, models.TriggerEvent{
		Type:    models.TriggerRecordCreated,
		OwnerID: "user-1",
		Payload: map[string]any{"domain": "deal"},
	})

	require.NoError(t, p.SaveExecution(ctx, record))

	loaded, err := p.ExecutionByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusPending, loaded.Status)
	assert.Equal(t, map[string]any{"domain": "deal"}, loaded.TriggerData)
	assert.Empty(t, loaded.ErrorMessage)
	assert.Nil(t, loaded.CompletedAt)

	require.NoError(t, record.MarkRunning())
	require.NoError(t, record.Fail("boom"))
	require.NoError(t, p.SaveExecution(ctx, record))

	loaded, err = p.ExecutionByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusFailed, loaded.Status)
	assert.Equal(t, "boom", loaded.ErrorMessage)
	assert.NotNil(t, loaded.CompletedAt)
}

func TestExecutionsByOwnerOrderAndPagination(t *testing.T) {
	p, ctx := setupTestDB(t)
	defer p.Close(ctx)

	rule := &models.WorkflowRule{OwnerID: "user-1", Name: "r", TriggerType: "record_created", ActionType: "a", IsActive: true}
	require.NoError(t, p.SaveRule(ctx, rule))

	base := time.Now().UTC().Truncate(time.Millisecond)

	for i := range 5 {
		record := models.NewExecutionRecord(*rule, models.TriggerEvent{Type: "record_created", OwnerID: "user-1"})
		record.StartedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, p.SaveExecution(ctx, record))
	}

	page, err := p.ExecutionsByOwner(ctx, "user-1", 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, page[0].StartedAt.After(page[1].StartedAt))

	rest, err := p.ExecutionsByOwner(ctx, "user-1", 10, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 3)
}

func TestHealthCheck(t *testing.T) {
	p, ctx := setupTestDB(t)
	defer p.Close(ctx)

	assert.NoError(t, p.HealthCheck(ctx))
}

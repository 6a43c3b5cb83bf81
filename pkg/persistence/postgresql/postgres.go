// Package postgresql provides PostgreSQL persistence for workflow rules and
// execution records.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver
	"github.com/salesdeck/automation/pkg/models"
	"github.com/salesdeck/automation/pkg/persistence"
)

type Persistence struct {
	db         *sql.DB
	logger     *slog.Logger
	rules      *RuleRepository
	executions *ExecutionRepository
}

// NewPersistence opens the database and applies the schema migration.
func NewPersistence(ctx context.Context, databaseURL string, logger *slog.Logger) (*Persistence, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger = logger.With("module", "postgresql_persistence")

	return &Persistence{
		db:         db,
		logger:     logger,
		rules:      NewRuleRepository(db, logger),
		executions: NewExecutionRepository(db, logger),
	}, nil
}

var _ persistence.Persistence = (*Persistence)(nil)

func (p *Persistence) ActiveRulesByOwner(ctx context.Context, ownerID string) ([]models.WorkflowRule, error) {
	return p.rules.ActiveRulesByOwner(ctx, ownerID)
}

func (p *Persistence) RuleByID(ctx context.Context, id string) (*models.WorkflowRule, error) {
	return p.rules.ByID(ctx, id)
}

func (p *Persistence) SaveRule(ctx context.Context, rule *models.WorkflowRule) error {
	return p.rules.Save(ctx, rule)
}

func (p *Persistence) SaveExecution(ctx context.Context, record *models.ExecutionRecord) error {
	return p.executions.Save(ctx, record)
}

func (p *Persistence) ExecutionByID(ctx context.Context, id string) (*models.ExecutionRecord, error) {
	return p.executions.ByID(ctx, id)
}

func (p *Persistence) ExecutionsByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*models.ExecutionRecord, error) {
	return p.executions.ByOwner(ctx, ownerID, limit, offset)
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Persistence) Close(_ context.Context) error {
	return p.db.Close()
}

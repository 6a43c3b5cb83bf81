// Package persistence abstracts storage of workflow rules and execution
// records.
package persistence

import (
	"context"

	"github.com/salesdeck/automation/pkg/models"
)

// RuleRepository reads workflow rules. Rule CRUD is owned by the surrounding
// CRM application; the engine loads rules read-only.
type RuleRepository interface {
	ActiveRulesByOwner(ctx context.Context, ownerID string) ([]models.WorkflowRule, error)
	RuleByID(ctx context.Context, id string) (*models.WorkflowRule, error)
	SaveRule(ctx context.Context, rule *models.WorkflowRule) error
}

// ExecutionRepository stores execution records. Records are created when a
// rule matches, mutated only through status transitions, and never deleted by
// the engine.
type ExecutionRepository interface {
	SaveExecution(ctx context.Context, record *models.ExecutionRecord) error
	ExecutionByID(ctx context.Context, id string) (*models.ExecutionRecord, error)
	ExecutionsByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*models.ExecutionRecord, error)
}

type Persistence interface {
	RuleRepository
	ExecutionRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/salesdeck/automation/pkg/models"
	"github.com/salesdeck/automation/pkg/persistence"
)

type RuleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewRuleRepository(db *sql.DB, logger *slog.Logger) *RuleRepository {
	return &RuleRepository{db: db, logger: logger}
}

const ruleColumns = `
	id
  , owner_id
  , name
  , trigger_type
  , trigger_conditions
  , action_type
  , action_config
  , is_active
  , created_at
  , updated_at`

func (r *RuleRepository) ActiveRulesByOwner(ctx context.Context, ownerID string) ([]models.WorkflowRule, error) {
	query := `SELECT` + ruleColumns + `
		FROM workflow_rules
		WHERE owner_id = $1 AND is_active
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	rules := make([]models.WorkflowRule, 0)

	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}

		rules = append(rules, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return rules, nil
}

func (r *RuleRepository) ByID(ctx context.Context, id string) (*models.WorkflowRule, error) {
	query := `SELECT` + ruleColumns + `
		FROM workflow_rules
		WHERE id = $1`

	rule, err := scanRule(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &persistence.StoreError{Op: "RuleByID", Entity: "rule", ID: id, Err: persistence.ErrRuleNotFound}
		}

		return nil, fmt.Errorf("failed to scan rule: %w", err)
	}

	return rule, nil
}

func (r *RuleRepository) Save(ctx context.Context, rule *models.WorkflowRule) error {
	now := time.Now().UTC()

	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}

	rule.UpdatedAt = now

	if rule.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate rule ID: %w", err)
		}

		rule.ID = id.String()
	}

	conditions, err := json.Marshal(rule.TriggerConditions)
	if err != nil {
		return fmt.Errorf("failed to encode trigger conditions: %w", err)
	}

	config, err := json.Marshal(rule.ActionConfig)
	if err != nil {
		return fmt.Errorf("failed to encode action config: %w", err)
	}

	query := `
		INSERT INTO workflow_rules (id, owner_id, name, trigger_type, trigger_conditions, action_type, action_config, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name
		  , trigger_type = EXCLUDED.trigger_type
		  , trigger_conditions = EXCLUDED.trigger_conditions
		  , action_type = EXCLUDED.action_type
		  , action_config = EXCLUDED.action_config
		  , is_active = EXCLUDED.is_active
		  , updated_at = EXCLUDED.updated_at`

	_, err = r.db.ExecContext(ctx, query,
		rule.ID, rule.OwnerID, rule.Name, rule.TriggerType, conditions,
		rule.ActionType, config, rule.IsActive, rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		return &persistence.StoreError{Op: "SaveRule", Entity: "rule", ID: rule.ID, Err: err}
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRule(row scanner) (*models.WorkflowRule, error) {
	var (
		rule       models.WorkflowRule
		conditions []byte
		config     []byte
	)

	err := row.Scan(
		&rule.ID, &rule.OwnerID, &rule.Name, &rule.TriggerType, &conditions,
		&rule.ActionType, &config, &rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(conditions) > 0 {
		if err := json.Unmarshal(conditions, &rule.TriggerConditions); err != nil {
			return nil, fmt.Errorf("failed to decode trigger conditions: %w", err)
		}
	}

	if len(config) > 0 {
		if err := json.Unmarshal(config, &rule.ActionConfig); err != nil {
			return nil, fmt.Errorf("failed to decode action config: %w", err)
		}
	}

	return &rule, nil
}

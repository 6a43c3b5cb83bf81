package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/salesdeck/automation/pkg/models"
	"github.com/salesdeck/automation/pkg/persistence"
)

type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

const executionColumns = `
	id
  , workflow_id
  , owner_id
  , status
  , trigger_type
  , trigger_data
  , action_results
  , error_message
  , execution_time_ms
  , started_at
  , completed_at`

// Save upserts the record; status updates from the queue reuse the same
// statement.
func (r *ExecutionRepository) Save(ctx context.Context, record *models.ExecutionRecord) error {
	triggerData, err := json.Marshal(record.TriggerData)
	if err != nil {
		return fmt.Errorf("failed to encode trigger data: %w", err)
	}

	var actionResults []byte
	if record.ActionResults != nil {
		actionResults, err = json.Marshal(record.ActionResults)
		if err != nil {
			return fmt.Errorf("failed to encode action results: %w", err)
		}
	}

	query := `
		INSERT INTO execution_records (id, workflow_id, owner_id, status, trigger_type, trigger_data, action_results, error_message, execution_time_ms, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status
		  , action_results = EXCLUDED.action_results
		  , error_message = EXCLUDED.error_message
		  , execution_time_ms = EXCLUDED.execution_time_ms
		  , completed_at = EXCLUDED.completed_at`

	_, err = r.db.ExecContext(ctx, query,
		record.ID, record.WorkflowID, record.OwnerID, record.Status, record.TriggerType,
		triggerData, actionResults, nullString(record.ErrorMessage),
		record.ExecutionTimeMS, record.StartedAt, record.CompletedAt,
	)
	if err != nil {
		return &persistence.StoreError{Op: "SaveExecution", Entity: "execution", ID: record.ID, Err: err}
	}

	return nil
}

func (r *ExecutionRepository) ByID(ctx context.Context, id string) (*models.ExecutionRecord, error) {
	query := `SELECT` + executionColumns + `
		FROM execution_records
		WHERE id = $1`

	record, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &persistence.StoreError{Op: "ExecutionByID", Entity: "execution", ID: id, Err: persistence.ErrExecutionNotFound}
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	return record, nil
}

func (r *ExecutionRepository) ByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*models.ExecutionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT` + executionColumns + `
		FROM execution_records
		WHERE owner_id = $1
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	records := make([]*models.ExecutionRecord, 0)

	for rows.Next() {
		record, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return records, nil
}

func scanExecution(row scanner) (*models.ExecutionRecord, error) {
	var (
		record        models.ExecutionRecord
		triggerData   []byte
		actionResults []byte
		errorMessage  sql.NullString
	)

	err := row.Scan(
		&record.ID, &record.WorkflowID, &record.OwnerID, &record.Status, &record.TriggerType,
		&triggerData, &actionResults, &errorMessage,
		&record.ExecutionTimeMS, &record.StartedAt, &record.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(triggerData) > 0 {
		if err := json.Unmarshal(triggerData, &record.TriggerData); err != nil {
			return nil, fmt.Errorf("failed to decode trigger data: %w", err)
		}
	}

	if len(actionResults) > 0 {
		if err := json.Unmarshal(actionResults, &record.ActionResults); err != nil {
			return nil, fmt.Errorf("failed to decode action results: %w", err)
		}
	}

	record.ErrorMessage = errorMessage.String

	return &record, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

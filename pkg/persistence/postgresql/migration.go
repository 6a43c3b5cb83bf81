package postgresql

import (
	"context"
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS workflow_rules (
		id UUID PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		trigger_type TEXT NOT NULL,
		trigger_conditions JSONB NOT NULL DEFAULT '{}',
		action_type TEXT NOT NULL,
		action_config JSONB NOT NULL DEFAULT '{}',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_workflow_rules_owner_active
		ON workflow_rules (owner_id) WHERE is_active`,
	`CREATE TABLE IF NOT EXISTS execution_records (
		id UUID PRIMARY KEY,
		workflow_id UUID NOT NULL,
		owner_id TEXT NOT NULL,
		status TEXT NOT NULL,
		trigger_type TEXT NOT NULL,
		trigger_data JSONB,
		action_results JSONB,
		error_message TEXT,
		execution_time_ms BIGINT NOT NULL DEFAULT 0,
		started_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_execution_records_owner_started
		ON execution_records (owner_id, started_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_execution_records_workflow
		ON execution_records (workflow_id, started_at DESC)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for i, statement := range migrations {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}

	return nil
}

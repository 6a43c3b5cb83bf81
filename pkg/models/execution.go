package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusSuccess   ExecutionStatus = "success"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
)

// ExecutionRecord is the persisted audit row for one rule match. Status
// transitions are monotonic: pending -> running -> {success|failed|cancelled}.
// ExecutionTimeMS is set exactly once, on the terminal transition.
type ExecutionRecord struct {
	ID              string          `json:"id"`
	WorkflowID      string          `json:"workflow_id"`
	OwnerID         string          `json:"owner_id"`
	Status          ExecutionStatus `json:"status"`
	TriggerType     string          `json:"trigger_type"`
	TriggerData     map[string]any  `json:"trigger_data,omitempty"`
	ActionResults   map[string]any  `json:"action_results,omitempty"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	ExecutionTimeMS int64           `json:"execution_time_ms"`
	StartedAt       time.Time       `json:"started_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`

	// runningAt is the wall clock at the running transition. ExecutionTimeMS
	// measures action dispatch, not time spent queued.
	runningAt time.Time
}

// NewExecutionRecord creates a pending record for a matched rule.
func NewExecutionRecord(rule WorkflowRule, event TriggerEvent) *ExecutionRecord {
	return &ExecutionRecord{
		ID:          newExecutionID(),
		WorkflowID:  rule.ID,
		OwnerID:     rule.OwnerID,
		Status:      ExecutionStatusPending,
		TriggerType: event.Type,
		TriggerData: event.Payload,
		StartedAt:   time.Now().UTC(),
	}
}

func newExecutionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

// MarkRunning moves a pending record into the running state.
func (r *ExecutionRecord) MarkRunning() error {
	if r.Status != ExecutionStatusPending {
		return fmt.Errorf("execution %s: cannot transition %s -> running", r.ID, r.Status)
	}

	r.Status = ExecutionStatusRunning
	r.runningAt = time.Now().UTC()

	return nil
}

// Complete terminates a running record successfully.
func (r *ExecutionRecord) Complete(results map[string]any) error {
	if err := r.finalize(ExecutionStatusSuccess); err != nil {
		return err
	}

	r.ActionResults = results

	return nil
}

// Fail terminates a running record with an error message.
func (r *ExecutionRecord) Fail(message string) error {
	if err := r.finalize(ExecutionStatusFailed); err != nil {
		return err
	}

	r.ErrorMessage = message

	return nil
}

// Cancel terminates a pending or running record without executing its action.
func (r *ExecutionRecord) Cancel() error {
	if r.Status != ExecutionStatusPending && r.Status != ExecutionStatusRunning {
		return fmt.Errorf("execution %s: cannot transition %s -> cancelled", r.ID, r.Status)
	}

	return r.finalize(ExecutionStatusCancelled)
}

// IsTerminal reports whether the record reached a final status.
func (r *ExecutionRecord) IsTerminal() bool {
	switch r.Status {
	case ExecutionStatusSuccess, ExecutionStatusFailed, ExecutionStatusCancelled:
		return true
	default:
		return false
	}
}

func (r *ExecutionRecord) finalize(status ExecutionStatus) error {
	if r.IsTerminal() {
		return fmt.Errorf("execution %s: cannot transition %s -> %s", r.ID, r.Status, status)
	}

	now := time.Now().UTC()
	r.Status = status
	r.CompletedAt = &now

	// Records cancelled straight from pending never ran; their elapsed time
	// is the queue lifetime.
	since := r.runningAt
	if since.IsZero() {
		since = r.StartedAt
	}

	r.ExecutionTimeMS = now.Sub(since).Milliseconds()

	return nil
}

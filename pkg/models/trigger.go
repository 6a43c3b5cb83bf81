package models

// Canonical trigger type tags. The set is extensible: rules carrying a tag no
// source emits simply never match.
const (
	TriggerRecordCreated     = "record_created"
	TriggerRecordUpdated     = "record_updated"
	TriggerFieldTransitioned = "field_transitioned"
	TriggerStatusReached     = "status_reached"
	TriggerScheduleDue       = "schedule_due"
)

// TriggerEvent is a classified domain event handed to the engine. It is
// ephemeral: nothing outlives the execution records it produces.
type TriggerEvent struct {
	Type    string         `json:"type"`
	OwnerID string         `json:"owner_id"`
	Payload map[string]any `json:"payload"`
}

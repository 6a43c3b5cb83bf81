// Package events defines the normalized CRM change events the listener
// consumes. The external change source publishes these onto the bus; the
// engine never sees raw store notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every CRM change notification.
const Topic = "crm.changes"

const EventKeyMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RecordCreatedEvent EventType = "record.created"
	RecordUpdatedEvent EventType = "record.updated"
	ScheduleDueEvent   EventType = "schedule.due"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	OwnerID   string         `json:"owner_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// RecordCreated signals a new record in one of the watched CRM domains
// (deal, contact, company, task).
type RecordCreated struct {
	BaseEvent

	Domain string         `json:"domain"`
	Record map[string]any `json:"record"`
}

func (e RecordCreated) GetType() EventType {
	return RecordCreatedEvent
}

// RecordUpdated signals a change to an existing record and carries the prior
// snapshot so the listener can derive field transitions.
type RecordUpdated struct {
	BaseEvent

	Domain   string         `json:"domain"`
	Record   map[string]any `json:"record"`
	Previous map[string]any `json:"previous,omitempty"`
}

func (e RecordUpdated) GetType() EventType {
	return RecordUpdatedEvent
}

// ScheduleDue signals that a time-based rule's cron schedule fired.
type ScheduleDue struct {
	BaseEvent

	RuleID string         `json:"rule_id"`
	Data   map[string]any `json:"data,omitempty"`
}

func (e ScheduleDue) GetType() EventType {
	return ScheduleDueEvent
}

func NewBaseEvent(eventType EventType, ownerID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		OwnerID:   ownerID,
		Metadata:  make(map[string]any),
	}
}

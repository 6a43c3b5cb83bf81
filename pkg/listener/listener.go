// Package listener subscribes to the CRM change stream and converts raw
// change notifications into normalized trigger events for the engine.
package listener

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/salesdeck/automation/pkg/eventbus"
	"github.com/salesdeck/automation/pkg/events"
	"github.com/salesdeck/automation/pkg/models"
)

// TriggerSink receives classified trigger events. The engine satisfies this.
type TriggerSink interface {
	OnTrigger(ctx context.Context, event models.TriggerEvent) error
}

// Listener classifies change events into canonical trigger types. One raw
// update may fan out into several trigger events: record_updated, one
// field_transitioned per changed watched field, and status_reached when the
// stage field changed.
type Listener struct {
	bus           eventbus.EventBus
	sink          TriggerSink
	watchedFields []string
	stageField    string
	logger        *slog.Logger
}

// Option configures a Listener.
type Option func(*Listener)

// WithWatchedFields sets the fields whose changes emit field_transitioned
// events.
func WithWatchedFields(fields ...string) Option {
	return func(l *Listener) {
		l.watchedFields = fields
	}
}

// WithStageField sets the field whose changes additionally emit
// status_reached events. Defaults to "stage".
func WithStageField(field string) Option {
	return func(l *Listener) {
		l.stageField = field
	}
}

func New(bus eventbus.EventBus, sink TriggerSink, logger *slog.Logger, opts ...Option) *Listener {
	l := &Listener{
		bus:           bus,
		sink:          sink,
		watchedFields: []string{"stage", "status", "owner", "value"},
		stageField:    "stage",
		logger:        logger.With("module", "trigger_listener"),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Start registers the handlers and opens the subscription. Handler errors are
// logged and swallowed: a bad notification must never tear down the
// subscription.
func (l *Listener) Start(ctx context.Context) error {
	if err := l.bus.Handle(events.RecordCreatedEvent, l.guarded(l.onRecordCreated)); err != nil {
		return err
	}

	if err := l.bus.Handle(events.RecordUpdatedEvent, l.guarded(l.onRecordUpdated)); err != nil {
		return err
	}

	if err := l.bus.Handle(events.ScheduleDueEvent, l.guarded(l.onScheduleDue)); err != nil {
		return err
	}

	l.logger.Info("Subscribing to CRM change stream")

	return l.bus.Subscribe(ctx)
}

// guarded wraps a handler so classification or routing failures are caught
// and logged instead of propagating into the stream callback.
func (l *Listener) guarded(handler func(ctx context.Context, event any) error) eventbus.EventHandler {
	return func(ctx context.Context, event any) error {
		defer func() {
			if r := recover(); r != nil {
				l.logger.Error("Panic while processing change notification", "panic", r)
			}
		}()

		if err := handler(ctx, event); err != nil {
			l.logger.Error("Failed to process change notification", "error", err)
		}

		return nil
	}
}

func (l *Listener) onRecordCreated(ctx context.Context, raw any) error {
	event, ok := raw.(*events.RecordCreated)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for record.created", raw)
	}

	return l.sink.OnTrigger(ctx, models.TriggerEvent{
		Type:    models.TriggerRecordCreated,
		OwnerID: event.OwnerID,
		Payload: map[string]any{
			"domain": event.Domain,
			"record": event.Record,
		},
	})
}

func (l *Listener) onRecordUpdated(ctx context.Context, raw any) error {
	event, ok := raw.(*events.RecordUpdated)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for record.updated", raw)
	}

	err := l.sink.OnTrigger(ctx, models.TriggerEvent{
		Type:    models.TriggerRecordUpdated,
		OwnerID: event.OwnerID,
		Payload: map[string]any{
			"domain":   event.Domain,
			"record":   event.Record,
			"previous": event.Previous,
		},
	})
	if err != nil {
		return err
	}

	for _, field := range l.watchedFields {
		oldValue, newValue, changed := fieldChange(event.Previous, event.Record, field)
		if !changed {
			continue
		}

		err := l.sink.OnTrigger(ctx, models.TriggerEvent{
			Type:    models.TriggerFieldTransitioned,
			OwnerID: event.OwnerID,
			Payload: map[string]any{
				"domain":    event.Domain,
				"record":    event.Record,
				"field":     field,
				"old_value": oldValue,
				"new_value": newValue,
			},
		})
		if err != nil {
			return err
		}

		if field != l.stageField {
			continue
		}

		err = l.sink.OnTrigger(ctx, models.TriggerEvent{
			Type:    models.TriggerStatusReached,
			OwnerID: event.OwnerID,
			Payload: map[string]any{
				"domain": event.Domain,
				"record": event.Record,
				"status": newValue,
			},
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (l *Listener) onScheduleDue(ctx context.Context, raw any) error {
	event, ok := raw.(*events.ScheduleDue)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for schedule.due", raw)
	}

	payload := map[string]any{
		"rule_id":   event.RuleID,
		"timestamp": event.Timestamp,
	}

	for key, value := range event.Data {
		payload[key] = value
	}

	return l.sink.OnTrigger(ctx, models.TriggerEvent{
		Type:    models.TriggerScheduleDue,
		OwnerID: event.OwnerID,
		Payload: payload,
	})
}

// fieldChange reports whether a watched field differs between the prior and
// new snapshots. Absent-in-both counts as unchanged.
func fieldChange(previous, record map[string]any, field string) (oldValue, newValue any, changed bool) {
	oldValue, hadOld := previous[field]
	newValue, hasNew := record[field]

	if !hadOld && !hasNew {
		return nil, nil, false
	}

	return oldValue, newValue, !reflect.DeepEqual(oldValue, newValue)
}

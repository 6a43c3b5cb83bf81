// Package engine composes the live execution path: trigger matching against
// cached rules and the serialized execution queue behind it.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/salesdeck/automation/pkg/conditions"
	"github.com/salesdeck/automation/pkg/models"
	"github.com/salesdeck/automation/pkg/otelhelper"
	"github.com/salesdeck/automation/pkg/perf"
	"github.com/salesdeck/automation/pkg/persistence"
	"github.com/salesdeck/automation/pkg/rules"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Engine is the live workflow engine. It is a plain value owned by the
// caller's scope: construct one explicitly and pass it around, there is no
// process-wide instance.
type Engine struct {
	store      *rules.Store
	queue      *Queue
	executions persistence.ExecutionRepository
	tracker    *perf.Tracker
	tracer     trace.Tracer
	logger     *slog.Logger
}

func New(
	store *rules.Store,
	queue *Queue,
	executions persistence.ExecutionRepository,
	tracker *perf.Tracker,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		store:      store,
		queue:      queue,
		executions: executions,
		tracker:    tracker,
		tracer:     tracer,
		logger:     logger.With("module", "engine"),
	}
}

// OnTrigger matches the event against the owner's active rules and enqueues
// one execution request per match. Matching is independent per rule: a single
// event may enqueue zero, one or many executions. Unknown trigger types
// simply match nothing.
func (e *Engine) OnTrigger(ctx context.Context, event models.TriggerEvent) error {
	start := time.Now()
	defer func() {
		e.tracker.Observe("trigger_match", time.Since(start))
	}()

	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "engine.on_trigger",
			attribute.String(otelhelper.TriggerTypeKey, event.Type),
			attribute.String(otelhelper.OwnerIDKey, event.OwnerID),
		)
		defer span.End()
	}

	logger := e.logger.With("trigger_type", event.Type, "owner_id", event.OwnerID)

	active, err := e.store.Load(ctx, event.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	matched := 0

	for _, rule := range active {
		if rule.TriggerType != event.Type {
			continue
		}

		if !conditions.Evaluate(rule.TriggerConditions, event.Payload) {
			logger.Debug("Rule conditions not met", "rule_id", rule.ID)

			continue
		}

		record := models.NewExecutionRecord(rule, event)

		if err := e.executions.SaveExecution(ctx, record); err != nil {
			logger.Error("Failed to persist execution record", "rule_id", rule.ID, "error", err)

			continue
		}

		e.queue.Enqueue(&Request{Rule: rule, Record: record, Event: event})
		matched++

		logger.Info("Rule matched, execution enqueued",
			"rule_id", rule.ID,
			"execution_id", record.ID,
			"action_type", rule.ActionType,
		)
	}

	logger.Debug("Trigger processed", "rules_checked", len(active), "matched", matched)

	return nil
}

// ReloadRules invalidates the rule cache after edits elsewhere in the
// application.
func (e *Engine) ReloadRules() {
	e.store.Reload()
}

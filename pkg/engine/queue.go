package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/salesdeck/automation/pkg/models"
	"github.com/salesdeck/automation/pkg/otelhelper"
	"github.com/salesdeck/automation/pkg/perf"
	"github.com/salesdeck/automation/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultTickInterval = time.Second

// Dispatcher executes one action and returns its result object. The registry
// satisfies this.
type Dispatcher interface {
	Dispatch(ctx context.Context, actionType string, config map[string]any, trigger models.TriggerEvent) (map[string]any, error)
}

// Request is one queued execution: a matched rule plus the pending record
// already persisted for it.
type Request struct {
	Rule   models.WorkflowRule
	Record *models.ExecutionRecord
	Event  models.TriggerEvent
}

// Queue serializes action execution system-wide: one timer-driven pass at a
// time, one request per pass. Serialization avoids concurrent side-effect
// races across rules touching the same record; the cost is head-of-line
// blocking under high trigger volume, which is accepted.
type Queue struct {
	dispatcher Dispatcher
	executions persistence.ExecutionRepository
	tracker    *perf.Tracker
	tracer     trace.Tracer
	logger     *slog.Logger
	interval   time.Duration

	mu         sync.Mutex
	pending    []*Request
	processing bool
}

func NewQueue(
	dispatcher Dispatcher,
	executions persistence.ExecutionRepository,
	tracker *perf.Tracker,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Queue {
	return &Queue{
		dispatcher: dispatcher,
		executions: executions,
		tracker:    tracker,
		tracer:     tracer,
		logger:     logger.With("module", "execution_queue"),
		interval:   defaultTickInterval,
	}
}

// Enqueue appends a request. Callers never wait for execution.
func (q *Queue) Enqueue(req *Request) {
	q.mu.Lock()
	q.pending = append(q.pending, req)
	depth := len(q.pending)
	q.mu.Unlock()

	q.logger.Debug("Execution request enqueued", "execution_id", req.Record.ID, "queue_depth", depth)
}

// Len returns the number of queued requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.pending)
}

// Start runs the tick loop until the context is cancelled.
func (q *Queue) Start(ctx context.Context) {
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	q.logger.Info("Execution queue started", "interval", q.interval)

	for {
		select {
		case <-ctx.Done():
			q.logger.Info("Execution queue stopped")

			return
		case <-ticker.C:
			q.Tick(ctx)
		}
	}
}

// Tick runs one processing pass: a no-op when a pass is already running or
// the queue is empty, otherwise it removes exactly one request and drives it
// to a terminal status. The guard flag is the sole concurrency control; a new
// pass never starts before the previous one resolved.
func (q *Queue) Tick(ctx context.Context) {
	q.mu.Lock()

	if q.processing || len(q.pending) == 0 {
		q.mu.Unlock()

		return
	}

	q.processing = true
	req := q.pending[0]
	q.pending = q.pending[1:]
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.processing = false
		q.mu.Unlock()
	}()

	q.process(ctx, req)
}

func (q *Queue) process(ctx context.Context, req *Request) {
	logger := q.logger.With(
		"execution_id", req.Record.ID,
		"rule_id", req.Rule.ID,
		"action_type", req.Rule.ActionType,
	)

	if q.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, q.tracer, "queue.process",
			attribute.String(otelhelper.ExecutionIDKey, req.Record.ID),
			attribute.String(otelhelper.ActionTypeKey, req.Rule.ActionType),
		)
		defer span.End()
	}

	if err := req.Record.MarkRunning(); err != nil {
		logger.Error("Refusing to process execution", "error", err)

		return
	}

	q.save(ctx, logger, req.Record)

	start := time.Now()
	results, err := q.dispatch(ctx, req)
	elapsed := time.Since(start)

	q.tracker.Observe("action_execute", elapsed)

	if err != nil {
		if ferr := req.Record.Fail(err.Error()); ferr != nil {
			logger.Error("Failed to mark execution failed", "error", ferr)
		}

		logger.Warn("Action execution failed", "error", err, "elapsed", elapsed)
	} else {
		if cerr := req.Record.Complete(results); cerr != nil {
			logger.Error("Failed to mark execution complete", "error", cerr)
		}

		logger.Info("Action executed", "elapsed", elapsed)
	}

	q.save(ctx, logger, req.Record)
}

// dispatch isolates handler panics: a panicking action fails its own
// execution and leaves subsequent ticks unaffected.
func (q *Queue) dispatch(ctx context.Context, req *Request) (results map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action handler panicked: %v", r)
		}
	}()

	return q.dispatcher.Dispatch(ctx, req.Rule.ActionType, req.Rule.ActionConfig, req.Event)
}

func (q *Queue) save(ctx context.Context, logger *slog.Logger, record *models.ExecutionRecord) {
	if err := q.executions.SaveExecution(ctx, record); err != nil {
		logger.Error("Failed to persist execution record", "status", record.Status, "error", err)
	}
}

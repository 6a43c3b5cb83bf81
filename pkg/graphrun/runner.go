package graphrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/salesdeck/automation/pkg/models"
	"github.com/salesdeck/automation/pkg/perf"
)

type RunState string

const (
	RunStateIdle      RunState = "idle"
	RunStateRunning   RunState = "running"
	RunStatePaused    RunState = "paused"
	RunStateCompleted RunState = "completed"
)

const defaultStepDelay = 400 * time.Millisecond

var ErrRunInProgress = errors.New("a run is already in progress")

// Runner walks one graph. Pause, resume, speed and stop are live controls on
// the current run; each run carries its own runContext.
type Runner struct {
	graph     models.Graph
	observer  Observer
	tracker   *perf.Tracker
	logger    *slog.Logger
	stepDelay time.Duration

	mu      sync.Mutex
	state   RunState
	speed   float64
	pauseCh chan struct{}
	cancel  context.CancelFunc
}

type Option func(*Runner)

// WithObserver streams live node-state changes to the caller.
func WithObserver(observer Observer) Option {
	return func(r *Runner) {
		r.observer = observer
	}
}

func WithTracker(tracker *perf.Tracker) Option {
	return func(r *Runner) {
		r.tracker = tracker
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithStepDelay sets the base visual delay applied before each node at speed
// 1. Tests set this to zero.
func WithStepDelay(delay time.Duration) Option {
	return func(r *Runner) {
		r.stepDelay = delay
	}
}

func New(graph models.Graph, opts ...Option) (*Runner, error) {
	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}

	r := &Runner{
		graph:     graph,
		logger:    slog.Default().With("module", "graph_runner"),
		stepDelay: defaultStepDelay,
		state:     RunStateIdle,
		speed:     1,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// State returns the runner's lifecycle state.
func (r *Runner) State() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state
}

// SetSpeed scales the visual delay by 1/speed. Live-mutable during a run.
func (r *Runner) SetSpeed(speed float64) {
	if speed <= 0 {
		return
	}

	r.mu.Lock()
	r.speed = speed
	r.mu.Unlock()
}

// Pause suspends the run before the next node dispatch.
func (r *Runner) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == RunStateRunning && r.pauseCh == nil {
		r.pauseCh = make(chan struct{})
		r.state = RunStatePaused
	}
}

// Resume releases a paused run.
func (r *Runner) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == RunStatePaused && r.pauseCh != nil {
		close(r.pauseCh)
		r.pauseCh = nil
		r.state = RunStateRunning
	}
}

// Stop aborts the current run. In-flight waits observe the cancellation and
// exit without marking further nodes.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	if r.pauseCh != nil {
		close(r.pauseCh)
		r.pauseCh = nil
	}
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Reset clears the runner back to idle so the same graph can be run again.
func (r *Runner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == RunStateRunning || r.state == RunStatePaused {
		return
	}

	r.state = RunStateIdle
}

// IdleStates returns an all-idle state map for rendering the graph before a
// run starts or after Reset.
func (r *Runner) IdleStates() map[string]NodeState {
	states := make(map[string]NodeState, len(r.graph.Nodes))
	for _, node := range r.graph.Nodes {
		states[node.ID] = NodeState{Status: StatusIdle}
	}

	return states
}

// Run executes the graph from its trigger node with the seeded test data.
// It returns the partial result when the run is stopped mid-traversal.
func (r *Runner) Run(ctx context.Context, seed map[string]any) (*Result, error) {
	r.mu.Lock()

	if r.state == RunStateRunning || r.state == RunStatePaused {
		r.mu.Unlock()

		return nil, ErrRunInProgress
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.state = RunStateRunning
	r.mu.Unlock()

	defer func() {
		cancel()

		r.mu.Lock()
		r.state = RunStateCompleted
		r.cancel = nil
		r.pauseCh = nil
		r.mu.Unlock()
	}()

	start := time.Now()
	rc := newRunContext(r.graph, seed)

	trigger, err := r.graph.TriggerNode()
	if err != nil {
		return nil, err
	}

	walkErr := r.visit(ctx, rc, trigger)

	if r.tracker != nil {
		r.tracker.Observe("graph_run", time.Since(start))
	}

	if walkErr != nil && !errors.Is(walkErr, context.Canceled) {
		return rc.result(), walkErr
	}

	return rc.result(), nil
}

// visit executes one node and recurses into its selected successors. A node
// already on the execution path is never visited twice, which also breaks
// cyclic-looking graphs.
func (r *Runner) visit(ctx context.Context, rc *runContext, node models.GraphNode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if rc.visited[node.ID] {
		return nil
	}

	if err := r.waitWhilePaused(ctx); err != nil {
		return err
	}

	rc.visited[node.ID] = true
	rc.path = append(rc.path, node.ID)

	state := rc.states[node.ID]
	now := time.Now().UTC()
	state.Status = StatusActive
	state.StartedAt = &now
	state.Input = snapshot(rc.data)

	rc.appendLog(node, LogTypeStart, fmt.Sprintf("Executing %s node", node.Type), nil, nil)
	r.notify(node.ID, state)

	if err := r.stepPause(ctx); err != nil {
		return err
	}

	targets, err := r.execute(ctx, rc, node, state)
	if err != nil {
		// Node-level failure halts this branch only; siblings reachable via
		// other edges are unaffected.
		state.Status = StatusFailed
		state.Error = err.Error()
		state.Duration = time.Since(now)

		rc.appendLog(node, LogTypeError, err.Error(), nil, boolPtr(false))
		r.notify(node.ID, state)

		return nil
	}

	state.Status = StatusSuccess
	state.Duration = time.Since(now)

	rc.selected[node.ID] = targets
	rc.appendLog(node, LogTypeComplete, fmt.Sprintf("%s node completed", node.Type), state.Output, boolPtr(true))
	r.notify(node.ID, state)

	for _, targetID := range targets {
		target, ok := r.graph.NodeByID(targetID)
		if !ok {
			continue
		}

		if err := r.visit(ctx, rc, target); err != nil {
			return err
		}
	}

	return nil
}

// execute runs node-type-specific behavior and returns the successor node ids
// to continue into.
func (r *Runner) execute(ctx context.Context, rc *runContext, node models.GraphNode, state *NodeState) ([]string, error) {
	switch node.Type {
	case models.NodeTypeTrigger:
		// Pass-through of the seeded test data.
		state.Output = snapshot(rc.data)
		rc.appendLog(node, LogTypeData, "Seeded test data", state.Output, nil)

		return edgeTargets(r.graph.OutgoingEdges(node.ID)), nil

	case models.NodeTypeCondition:
		return r.executeCondition(rc, node, state)

	case models.NodeTypeRouter:
		// Fan-out: always continue to every outgoing edge.
		state.Output = map[string]any{"routed": true}

		return edgeTargets(r.graph.OutgoingEdges(node.ID)), nil

	case models.NodeTypeAction:
		result, err := r.executeMockAction(rc, node)
		if err != nil {
			return nil, err
		}

		state.Output = result

		return edgeTargets(r.graph.OutgoingEdges(node.ID)), nil

	default:
		return nil, fmt.Errorf("unknown node type %q", node.Type)
	}
}

func (r *Runner) executeCondition(rc *runContext, node models.GraphNode, state *NodeState) ([]string, error) {
	pass := evaluateNodeCondition(node.Data, rc.data)

	state.Output = map[string]any{"condition_result": pass}
	rc.appendLog(node, LogTypeCondition, fmt.Sprintf("Condition evaluated to %t", pass), nil, &pass)

	edges := r.graph.OutgoingEdges(node.ID)

	var matched, unmatched, unlabeled []string

	want := models.EdgeHandleFalse
	if pass {
		want = models.EdgeHandleTrue
	}

	for _, edge := range edges {
		switch edge.SourceHandle {
		case "":
			unlabeled = append(unlabeled, edge.Target)
		case want:
			matched = append(matched, edge.Target)
		default:
			unmatched = append(unmatched, edge.Target)
		}
	}

	if len(matched) > 0 {
		r.skipBranch(rc, node.ID, unmatched)

		return matched, nil
	}

	// No labeled edge for this outcome: continue to successors only when the
	// condition passed.
	if pass {
		return unlabeled, nil
	}

	r.skipBranch(rc, node.ID, append(unmatched, unlabeled...))

	return nil, nil
}

// skipBranch marks every node transitively reachable only through the
// unselected branch as skipped. Skipped nodes never join the execution path.
func (r *Runner) skipBranch(rc *runContext, viaID string, targets []string) {
	for _, targetID := range targets {
		r.markSkipped(rc, viaID, targetID)
	}
}

func (r *Runner) markSkipped(rc *runContext, viaID, nodeID string) {
	if rc.visited[nodeID] || rc.skipped[nodeID] {
		return
	}

	if r.otherwiseReachable(rc, nodeID, viaID) {
		return
	}

	node, ok := r.graph.NodeByID(nodeID)
	if !ok {
		return
	}

	rc.skipped[nodeID] = true

	state := rc.states[nodeID]
	state.Status = StatusSkipped

	rc.appendLog(node, LogTypeSkip, "Skipped: unreachable branch", nil, nil)
	r.notify(nodeID, state)

	for _, edge := range r.graph.OutgoingEdges(nodeID) {
		r.markSkipped(rc, nodeID, edge.Target)
	}
}

// otherwiseReachable reports whether an already-visited node selected an edge
// into this node, other than the branch being skipped.
func (r *Runner) otherwiseReachable(rc *runContext, nodeID, viaID string) bool {
	for _, edge := range r.graph.IncomingEdges(nodeID) {
		if edge.Source == viaID {
			continue
		}

		if rc.skipped[edge.Source] || !rc.visited[edge.Source] {
			continue
		}

		for _, target := range rc.selected[edge.Source] {
			if target == nodeID {
				return true
			}
		}
	}

	return false
}

// stepPause applies the visual delay scaled by 1/speed, honoring
// cancellation.
func (r *Runner) stepPause(ctx context.Context) error {
	r.mu.Lock()
	speed := r.speed
	r.mu.Unlock()

	delay := time.Duration(float64(r.stepDelay) / speed)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// waitWhilePaused blocks until the run is resumed or aborted. Cooperative:
// checked once before each node dispatch, no busy-waiting.
func (r *Runner) waitWhilePaused(ctx context.Context) error {
	r.mu.Lock()
	ch := r.pauseCh
	r.mu.Unlock()

	if ch == nil {
		return ctx.Err()
	}

	select {
	case <-ch:
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) notify(nodeID string, state *NodeState) {
	if r.observer != nil {
		r.observer(nodeID, *state)
	}
}

func edgeTargets(edges []models.GraphEdge) []string {
	targets := make([]string, 0, len(edges))
	for _, edge := range edges {
		targets = append(targets, edge.Target)
	}

	return targets
}

func boolPtr(b bool) *bool {
	return &b
}

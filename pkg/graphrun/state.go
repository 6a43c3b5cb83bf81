// Package graphrun executes a workflow's node/edge graph offline against
// synthetic data, for visual step-through testing. It shares condition and
// interpolation semantics with the live engine but mocks every action.
package graphrun

import (
	"time"

	"github.com/salesdeck/automation/pkg/models"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusActive  Status = "active"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusWaiting Status = "waiting"
)

// NodeState is the per-node outcome of one run.
type NodeState struct {
	Status    Status         `json:"status"`
	StartedAt *time.Time     `json:"started_at,omitempty"`
	Duration  time.Duration  `json:"duration"`
	Input     map[string]any `json:"input,omitempty"`
	Output    map[string]any `json:"output,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type LogType string

const (
	LogTypeStart     LogType = "start"
	LogTypeComplete  LogType = "complete"
	LogTypeError     LogType = "error"
	LogTypeCondition LogType = "condition"
	LogTypeData      LogType = "data"
	LogTypeSkip      LogType = "skip"
)

// LogEntry is one line of a run's step-by-step log. Append-only, scoped to a
// single run.
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	NodeID    string         `json:"node_id"`
	NodeName  string         `json:"node_name"`
	Type      LogType        `json:"type"`
	Message   string         `json:"message"`
	Payload   map[string]any `json:"payload,omitempty"`
	Success   *bool          `json:"success,omitempty"`
}

// Result is everything a caller needs to render a finished (or aborted) run.
type Result struct {
	States map[string]NodeState `json:"node_states"`
	Path   []string             `json:"execution_path"`
	Log    []LogEntry           `json:"log"`
	Data   map[string]any       `json:"data"`
}

// Observer receives live per-node state changes for interactive
// visualization.
type Observer func(nodeID string, state NodeState)

// runContext is the explicit per-run state threaded through the recursive
// walk. Each run owns its own context, so concurrent test runs cannot
// cross-contaminate.
type runContext struct {
	data     map[string]any
	states   map[string]*NodeState
	path     []string
	log      []LogEntry
	visited  map[string]bool
	skipped  map[string]bool
	selected map[string][]string // node id -> targets its outgoing edges chose
}

func newRunContext(graph models.Graph, seed map[string]any) *runContext {
	states := make(map[string]*NodeState, len(graph.Nodes))
	for _, node := range graph.Nodes {
		states[node.ID] = &NodeState{Status: StatusIdle}
	}

	data := make(map[string]any, len(seed))
	for key, value := range seed {
		data[key] = value
	}

	return &runContext{
		data:     data,
		states:   states,
		visited:  make(map[string]bool),
		skipped:  make(map[string]bool),
		selected: make(map[string][]string),
	}
}

func (rc *runContext) appendLog(node models.GraphNode, logType LogType, message string, payload map[string]any, success *bool) {
	rc.log = append(rc.log, LogEntry{
		Timestamp: time.Now().UTC(),
		NodeID:    node.ID,
		NodeName:  node.Name(),
		Type:      logType,
		Message:   message,
		Payload:   payload,
		Success:   success,
	})
}

func (rc *runContext) result() *Result {
	states := make(map[string]NodeState, len(rc.states))
	for id, state := range rc.states {
		states[id] = *state
	}

	return &Result{
		States: states,
		Path:   append([]string(nil), rc.path...),
		Log:    append([]LogEntry(nil), rc.log...),
		Data:   rc.data,
	}
}

func snapshot(data map[string]any) map[string]any {
	copied := make(map[string]any, len(data))
	for key, value := range data {
		copied[key] = value
	}

	return copied
}

package models

import (
	"errors"
	"fmt"
)

type NodeType string

const (
	NodeTypeTrigger   NodeType = "trigger"
	NodeTypeCondition NodeType = "condition"
	NodeTypeRouter    NodeType = "router"
	NodeTypeAction    NodeType = "action"
)

// Edge handles emitted by condition nodes.
const (
	EdgeHandleTrue  = "true"
	EdgeHandleFalse = "false"
)

// GraphNode is one node of a test-mode workflow graph. Data carries the
// node-type-specific configuration: a condition expression, action parameters
// and so on.
type GraphNode struct {
	ID   string         `json:"id"`
	Type NodeType       `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// Name returns the display name configured for the node, falling back to the
// node ID.
func (n GraphNode) Name() string {
	if name, ok := n.Data["name"].(string); ok && name != "" {
		return name
	}

	return n.ID
}

type GraphEdge struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
}

// Graph is the static node/edge representation of a rule used for visual
// step-through testing.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

var ErrNoTriggerNode = errors.New("graph has no trigger node")

// TriggerNode returns the single trigger node execution starts from.
func (g Graph) TriggerNode() (GraphNode, error) {
	var found *GraphNode

	for i := range g.Nodes {
		if g.Nodes[i].Type == NodeTypeTrigger {
			if found != nil {
				return GraphNode{}, errors.New("graph has more than one trigger node")
			}

			found = &g.Nodes[i]
		}
	}

	if found == nil {
		return GraphNode{}, ErrNoTriggerNode
	}

	return *found, nil
}

// NodeByID looks up a node by its identifier.
func (g Graph) NodeByID(id string) (GraphNode, bool) {
	for _, node := range g.Nodes {
		if node.ID == id {
			return node, true
		}
	}

	return GraphNode{}, false
}

// OutgoingEdges returns every edge leaving the given node, in declaration
// order.
func (g Graph) OutgoingEdges(nodeID string) []GraphEdge {
	var edges []GraphEdge

	for _, edge := range g.Edges {
		if edge.Source == nodeID {
			edges = append(edges, edge)
		}
	}

	return edges
}

// IncomingEdges returns every edge entering the given node.
func (g Graph) IncomingEdges(nodeID string) []GraphEdge {
	var edges []GraphEdge

	for _, edge := range g.Edges {
		if edge.Target == nodeID {
			edges = append(edges, edge)
		}
	}

	return edges
}

// Validate checks structural integrity: a single trigger node, unique node
// IDs, and edges that reference existing nodes.
func (g Graph) Validate() error {
	if _, err := g.TriggerNode(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(g.Nodes))
	for _, node := range g.Nodes {
		if node.ID == "" {
			return errors.New("graph node is missing an id")
		}

		if seen[node.ID] {
			return fmt.Errorf("duplicate graph node id %q", node.ID)
		}

		seen[node.ID] = true
	}

	for _, edge := range g.Edges {
		if !seen[edge.Source] {
			return fmt.Errorf("edge references unknown source node %q", edge.Source)
		}

		if !seen[edge.Target] {
			return fmt.Errorf("edge references unknown target node %q", edge.Target)
		}
	}

	return nil
}

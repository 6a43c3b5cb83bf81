package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphTriggerNode(t *testing.T) {
	graph := Graph{
		Nodes: []GraphNode{
			{ID: "t1", Type: NodeTypeTrigger},
			{ID: "a1", Type: NodeTypeAction},
		},
	}

	trigger, err := graph.TriggerNode()
	require.NoError(t, err)
	assert.Equal(t, "t1", trigger.ID)

	_, err = Graph{Nodes: []GraphNode{{ID: "a1", Type: NodeTypeAction}}}.TriggerNode()
	assert.ErrorIs(t, err, ErrNoTriggerNode)

	_, err = Graph{Nodes: []GraphNode{
		{ID: "t1", Type: NodeTypeTrigger},
		{ID: "t2", Type: NodeTypeTrigger},
	}}.TriggerNode()
	assert.Error(t, err)
}

func TestGraphValidate(t *testing.T) {
	valid := Graph{
		Nodes: []GraphNode{
			{ID: "t1", Type: NodeTypeTrigger},
			{ID: "c1", Type: NodeTypeCondition},
		},
		Edges: []GraphEdge{{Source: "t1", Target: "c1"}},
	}
	assert.NoError(t, valid.Validate())

	duplicate := Graph{
		Nodes: []GraphNode{
			{ID: "t1", Type: NodeTypeTrigger},
			{ID: "t1", Type: NodeTypeAction},
		},
	}
	assert.Error(t, duplicate.Validate())

	danglingEdge := Graph{
		Nodes: []GraphNode{{ID: "t1", Type: NodeTypeTrigger}},
		Edges: []GraphEdge{{Source: "t1", Target: "ghost"}},
	}
	assert.Error(t, danglingEdge.Validate())
}

func TestGraphEdgeLookups(t *testing.T) {
	graph := Graph{
		Nodes: []GraphNode{
			{ID: "t1", Type: NodeTypeTrigger},
			{ID: "a1", Type: NodeTypeAction},
			{ID: "a2", Type: NodeTypeAction},
		},
		Edges: []GraphEdge{
			{Source: "t1", Target: "a1"},
			{Source: "t1", Target: "a2"},
			{Source: "a1", Target: "a2"},
		},
	}

	out := graph.OutgoingEdges("t1")
	require.Len(t, out, 2)
	assert.Equal(t, "a1", out[0].Target)
	assert.Equal(t, "a2", out[1].Target)

	in := graph.IncomingEdges("a2")
	assert.Len(t, in, 2)

	assert.Empty(t, graph.OutgoingEdges("a2"))
}

func TestGraphNodeName(t *testing.T) {
	named := GraphNode{ID: "n1", Data: map[string]any{"name": "Check value"}}
	assert.Equal(t, "Check value", named.Name())

	unnamed := GraphNode{ID: "n2"}
	assert.Equal(t, "n2", unnamed.Name())
}

func TestIsOperatorObject(t *testing.T) {
	object, ok := IsOperatorObject(map[string]any{"$gt": 10, "$lt": 20})
	assert.True(t, ok)
	assert.Len(t, object, 2)

	// A map with any non-operator key is a literal.
	_, ok = IsOperatorObject(map[string]any{"$gt": 10, "extra": 1})
	assert.False(t, ok)

	_, ok = IsOperatorObject(map[string]any{})
	assert.False(t, ok)

	_, ok = IsOperatorObject("negotiation")
	assert.False(t, ok)
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"http_request", "http_request"},
		{"HTTP", "http_request"},
		{"webhook", "http_request"},
		{"db", "database"},
		{"sql", "database"},
		{"email", "notification"},
		{"  Start  ", "start"},
		{"if", "branch"},
		{"set", "transform"},
		{"custom_type", "custom_type"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeType(tt.in), "NormalizeType(%q)", tt.in)
	}
}

func TestNodeTypeClasses(t *testing.T) {
	t.Parallel()
	assert.True(t, IsEntryType("start"))
	assert.True(t, IsEntryType("INPUT"))
	assert.False(t, IsEntryType("end"))

	assert.True(t, IsExitType("end"))
	assert.True(t, IsExitType("output"))
	assert.False(t, IsExitType("start"))

	assert.True(t, IsDefaultType("default"))
	assert.False(t, IsDefaultType("task"))

	assert.True(t, IsSideEffectType("http_request"))
	assert.True(t, IsSideEffectType("webhook"))
	assert.True(t, IsSideEffectType("db"))
	assert.False(t, IsSideEffectType("transform"))
	assert.False(t, IsSideEffectType("start"))
}

func TestWorkflowHasSideEffects(t *testing.T) {
	t.Parallel()
	pure := &Workflow{Nodes: []Node{{ID: "a", Type: "start"}, {ID: "b", Type: "transform"}}}
	assert.False(t, pure.HasSideEffects())

	effectful := &Workflow{Nodes: []Node{{ID: "a", Type: "start"}, {ID: "b", Type: "database"}}}
	assert.True(t, effectful.HasSideEffects())
}

func TestWorkflowNodeLookup(t *testing.T) {
	t.Parallel()
	wf := &Workflow{Nodes: []Node{{ID: "a", Type: "start"}, {ID: "b", Type: "end"}}}

	node, ok := wf.Node("b")
	require.True(t, ok)
	assert.Equal(t, "end", node.Type)

	_, ok = wf.Node("missing")
	assert.False(t, ok)
}

func TestNewGraphIgnoresDanglingEdges(t *testing.T) {
	t.Parallel()
	wf := &Workflow{
		Nodes: []Node{{ID: "a"}, {ID: "b"}},
		Edges: []Edge{
			{Source: "a", Target: "b"},
			{Source: "a", Target: "ghost"},
			{Source: "ghost", Target: "b"},
		},
	}

	g := newGraph(wf)
	assert.Len(t, g.outgoing["a"], 1)
	assert.Len(t, g.incoming["b"], 1)
}

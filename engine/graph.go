package engine

import "strings"

// Node is a single typed unit of work in a workflow graph. The Config map is
// node-type-specific and is rendered against upstream outputs before dispatch.
// Nodes are immutable for the duration of a run.
type Node struct {
	ID     string         `json:"id" yaml:"id"`
	Type   string         `json:"type" yaml:"type"`
	Name   string         `json:"name,omitempty" yaml:"name,omitempty"`
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// Edge is a directed connection between two nodes. An empty Condition means
// the edge is unconditional.
type Edge struct {
	ID        string `json:"id" yaml:"id"`
	Source    string `json:"source" yaml:"source"`
	Target    string `json:"target" yaml:"target"`
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// Workflow is a directed graph of typed nodes. Acyclicity is not a
// construction-time invariant: editing tools may hold cyclic drafts, so cycle
// detection happens when a run is scheduled, never earlier.
type Workflow struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Node type classes. Entry and exit pseudo-types get built-in semantics from
// the scheduler and never hit the executor registry.
var (
	entryTypes = map[string]struct{}{
		"start": {},
		"input": {},
	}
	exitTypes = map[string]struct{}{
		"end":    {},
		"output": {},
	}
	sideEffectTypes = map[string]struct{}{
		"http_request": {},
		"database":     {},
		"tool":         {},
		"notification": {},
		"file":         {},
	}
)

// typeAliases maps legacy node type names to their canonical form. Alias
// normalization happens at the classification and dispatch boundaries; the
// registry itself looks types up by exact string.
var typeAliases = map[string]string{
	"http":    "http_request",
	"webhook": "http_request",
	"db":      "database",
	"sql":     "database",
	"email":   "notification",
	"notify":  "notification",
	"file_io": "file",
	"if":      "branch",
	"switch":  "branch",
	"set":     "transform",
}

// NormalizeType lowercases a node type string and resolves legacy aliases to
// the canonical type name.
func NormalizeType(nodeType string) string {
	t := strings.ToLower(strings.TrimSpace(nodeType))
	if canonical, ok := typeAliases[t]; ok {
		return canonical
	}
	return t
}

// IsEntryType reports whether the node type has entry semantics: it always
// runs, receives the run's initial input, and bypasses the condition gate.
func IsEntryType(nodeType string) bool {
	_, ok := entryTypes[NormalizeType(nodeType)]
	return ok
}

// IsExitType reports whether the node type has exit semantics: it returns its
// first available input and its output becomes the run result.
func IsExitType(nodeType string) bool {
	_, ok := exitTypes[NormalizeType(nodeType)]
	return ok
}

// IsDefaultType reports whether the node type uses passthrough semantics.
func IsDefaultType(nodeType string) bool {
	return NormalizeType(nodeType) == "default"
}

// IsSideEffectType reports whether executing the node type can have effects
// outside the run (network calls, database writes, file I/O, notifications).
func IsSideEffectType(nodeType string) bool {
	_, ok := sideEffectTypes[NormalizeType(nodeType)]
	return ok
}

// HasSideEffects reports whether the workflow contains at least one
// side-effect node and therefore requires confirmation before execution.
func (w *Workflow) HasSideEffects() bool {
	for i := range w.Nodes {
		if IsSideEffectType(w.Nodes[i].Type) {
			return true
		}
	}
	return false
}

// Node returns the node with the given ID.
func (w *Workflow) Node(id string) (*Node, bool) {
	for i := range w.Nodes {
		if w.Nodes[i].ID == id {
			return &w.Nodes[i], true
		}
	}
	return nil, false
}

// graph is the immutable per-run view of a workflow: node lookup plus
// incoming/outgoing adjacency. It is built once per run and discarded with it.
type graph struct {
	nodes    map[string]*Node
	incoming map[string][]Edge
	outgoing map[string][]Edge
}

func newGraph(w *Workflow) *graph {
	g := &graph{
		nodes:    make(map[string]*Node, len(w.Nodes)),
		incoming: make(map[string][]Edge, len(w.Nodes)),
		outgoing: make(map[string][]Edge, len(w.Nodes)),
	}
	for i := range w.Nodes {
		g.nodes[w.Nodes[i].ID] = &w.Nodes[i]
	}
	for _, e := range w.Edges {
		// Dangling edges are a construction-time invariant enforced upstream;
		// ignore them here rather than corrupting the adjacency maps.
		if _, ok := g.nodes[e.Source]; !ok {
			continue
		}
		if _, ok := g.nodes[e.Target]; !ok {
			continue
		}
		g.outgoing[e.Source] = append(g.outgoing[e.Source], e)
		g.incoming[e.Target] = append(g.incoming[e.Target], e)
	}
	return g
}

package engine

import (
	"fmt"
	"strings"
)

// Structural errors are always fatal to a run and surface exactly once as the
// terminal failure event. Expression errors (condition and template
// evaluation) never reach this file: conditions fail closed and unresolved
// placeholders are left verbatim.

// CycleError reports that the workflow graph contains at least one cycle.
// It is returned before any node executes.
type CycleError struct {
	// Remaining lists the node IDs that could not be topologically ordered,
	// i.e. the nodes participating in (or downstream of) a cycle.
	Remaining []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("workflow contains a cycle involving nodes [%s]", strings.Join(e.Remaining, ", "))
}

// MissingRegistryError reports a dispatch attempt with no executor registry
// configured at all.
type MissingRegistryError struct {
	NodeType string
}

func (e *MissingRegistryError) Error() string {
	return fmt.Sprintf("no executor registry configured (node type %q)", e.NodeType)
}

// MissingExecutorError reports a node type present in the graph with no
// registered executor.
type MissingExecutorError struct {
	NodeType string
}

func (e *MissingExecutorError) Error() string {
	return fmt.Sprintf("no executor registered for node type %q", e.NodeType)
}

// NodeError wraps an executor failure with the identity of the node that
// produced it. It aborts the remaining schedule.
type NodeError struct {
	NodeID   string
	NodeType string
	Err      error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s (%s) failed: %v", e.NodeID, e.NodeType, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

package engine

import "time"

// EventType identifies a lifecycle event. The values are the stable wire
// tags consumed by the SSE and WebSocket transports.
type EventType string

const (
	EventNodeStarted     EventType = "node_start"
	EventNodeCompleted   EventType = "node_complete"
	EventNodeFailed      EventType = "node_error"
	EventNodeSkipped     EventType = "node_skipped"
	EventWorkflowDone    EventType = "workflow_complete"
	EventWorkflowFailed  EventType = "workflow_error"
	EventConfirmRequired EventType = "workflow_confirm_required"
	EventConfirmed       EventType = "workflow_confirmed"
)

// SkipReasonConditions is the reason attached to a node skipped because none
// of its incoming edge conditions were satisfied.
const SkipReasonConditions = "incoming_edge_conditions_not_met"

// LogEntry records one executed node in the run's audit trail.
type LogEntry struct {
	NodeID   string `json:"node_id"`
	NodeType string `json:"node_type"`
	Output   any    `json:"output"`
}

// RunSummary aggregates counters for a finished run.
type RunSummary struct {
	NodesExecuted int           `json:"nodes_executed"`
	NodesSkipped  int           `json:"nodes_skipped"`
	Duration      time.Duration `json:"duration_ns"`
}

// Event is the tagged union streamed to consumers. Which fields are populated
// depends on Type; zero-valued fields are omitted from the wire encoding.
type Event struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Node lifecycle fields.
	NodeID   string `json:"node_id,omitempty"`
	NodeType string `json:"node_type,omitempty"`
	Output   any    `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`

	// Skip fields.
	Reason         string   `json:"reason,omitempty"`
	EdgeConditions []string `json:"incoming_edge_conditions,omitempty"`

	// Terminal fields.
	Result  any         `json:"result,omitempty"`
	Log     []LogEntry  `json:"log,omitempty"`
	Summary *RunSummary `json:"summary,omitempty"`

	// Confirmation fields.
	ConfirmID string `json:"confirm_id,omitempty"`
	Decision  string `json:"decision,omitempty"`
}

// Terminal reports whether the event ends the stream. A run's event sequence
// contains exactly one terminal event.
func (e Event) Terminal() bool {
	return e.Type == EventWorkflowDone || e.Type == EventWorkflowFailed
}

// EventSink receives lifecycle events as the scheduler produces them. Sinks
// must not block: the streaming runner enforces its backpressure policy on
// its side of the sink.
type EventSink func(Event)

func nodeEvent(t EventType, runID string, node *Node) Event {
	return Event{
		Type:      t,
		RunID:     runID,
		Timestamp: time.Now(),
		NodeID:    node.ID,
		NodeType:  node.Type,
	}
}

package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/canvasflow/canvasflow/internal/metrics"
)

var tracer = otel.Tracer("github.com/canvasflow/canvasflow/engine")

// Scheduler turns a workflow plus an initial input into an ordered sequence
// of node executions. Within one run nodes execute strictly sequentially in
// topological order; independent branches are not parallelized. That is a
// deliberate determinism guarantee, not an oversight.
type Scheduler struct {
	registry  *Registry
	gate      *ConditionGate
	templates *TemplateResolver
	logger    *zap.Logger
	metrics   *metrics.Collector
}

// SchedulerOption configures optional scheduler dependencies.
type SchedulerOption func(*Scheduler)

// WithMetrics wires a metrics collector into the scheduler.
func WithMetrics(c *metrics.Collector) SchedulerOption {
	return func(s *Scheduler) {
		s.metrics = c
	}
}

// NewScheduler creates a scheduler dispatching to the given registry. The
// registry may be nil, in which case any node requiring a lookup fails with
// MissingRegistryError. A nil logger falls back to a no-op logger.
func NewScheduler(registry *Registry, logger *zap.Logger, opts ...SchedulerOption) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		registry:  registry,
		gate:      NewConditionGate(logger),
		templates: NewTemplateResolver(logger),
		logger:    logger.With(zap.String("component", "scheduler")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Order computes a topological order of the node IDs using Kahn's algorithm.
// The queue is seeded in node-list order, so the result is deterministic for
// a given workflow. If the graph has a cycle, Order returns a *CycleError
// listing the nodes that could not be ordered.
func (s *Scheduler) Order(nodes []Node, edges []Edge) ([]string, error) {
	inDegree := make(map[string]int, len(nodes))
	adjacency := make(map[string][]string, len(nodes))
	for i := range nodes {
		if _, seen := inDegree[nodes[i].ID]; !seen {
			inDegree[nodes[i].ID] = 0
		}
	}
	for _, e := range edges {
		if _, ok := inDegree[e.Source]; !ok {
			continue
		}
		if _, ok := inDegree[e.Target]; !ok {
			continue
		}
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
		inDegree[e.Target]++
	}

	queue := make([]string, 0, len(nodes))
	for i := range nodes {
		if inDegree[nodes[i].ID] == 0 {
			queue = append(queue, nodes[i].ID)
		}
	}

	order := make([]string, 0, len(nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, next := range adjacency[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) < len(inDegree) {
		ordered := make(map[string]struct{}, len(order))
		for _, id := range order {
			ordered[id] = struct{}{}
		}
		var remaining []string
		for i := range nodes {
			if _, ok := ordered[nodes[i].ID]; !ok {
				remaining = append(remaining, nodes[i].ID)
			}
		}
		return nil, &CycleError{Remaining: remaining}
	}
	return order, nil
}

// RunResult is the blocking-run return value: the run's result, full
// execution log, and per-node outputs. On failure the log and outputs cover
// everything recorded before the failing node, for diagnostics.
type RunResult struct {
	RunID   string         `json:"run_id"`
	Result  any            `json:"result"`
	Log     []LogEntry     `json:"log"`
	Outputs map[string]any `json:"outputs"`
	Summary RunSummary     `json:"summary"`
}

// Run executes the workflow to completion and returns its result and log.
// It does not consult the side-effect confirmation gate; confirmation is the
// StreamingRunner's concern, and callers invoking the scheduler directly are
// trusted not to need it. The streaming variant is StreamingRunner.Run.
func (s *Scheduler) Run(ctx context.Context, wf *Workflow, initialInput any) (*RunResult, error) {
	return s.run(ctx, wf, initialInput, make(map[string]any), uuid.NewString(), func(Event) {})
}

// run drives the per-node loop (gate, render, dispatch, record, emit) and
// emits the full event sequence, including the single terminal event,
// through emit. Cycle detection happens before any node executes, so a
// cyclic workflow never produces a node_start event.
func (s *Scheduler) run(ctx context.Context, wf *Workflow, initialInput any, runContext map[string]any, runID string, emit EventSink) (*RunResult, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "workflow.run",
		trace.WithAttributes(
			attribute.String("workflow.id", wf.ID),
			attribute.String("run.id", runID),
		),
	)
	defer span.End()

	if runContext == nil {
		runContext = make(map[string]any)
	}

	s.logger.Info("starting workflow run",
		zap.String("run_id", runID),
		zap.String("workflow_id", wf.ID),
		zap.Int("nodes", len(wf.Nodes)),
		zap.Int("edges", len(wf.Edges)),
	)

	res := &RunResult{RunID: runID, Outputs: make(map[string]any)}

	order, err := s.Order(wf.Nodes, wf.Edges)
	if err != nil {
		return s.fail(res, err, start, span, emit)
	}

	g := newGraph(wf)
	var result any
	haveResult := false

	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return s.fail(res, err, start, span, emit)
		}
		node := g.nodes[id]

		var gateRes GateResult
		if IsEntryType(node.Type) {
			// Entry nodes always run with the initial input as their sole
			// input and never consult the condition gate.
			gateRes = GateResult{
				Satisfied: true,
				Inputs:    []NodeInput{{Source: "initial_input", Value: initialInput}},
			}
		} else {
			gateRes = s.gate.Evaluate(node, g.incoming[id], res.Outputs, initialInput, runContext)
			if !gateRes.Satisfied {
				s.logger.Debug("node skipped",
					zap.String("run_id", runID),
					zap.String("node_id", node.ID),
					zap.Strings("conditions", gateRes.Conditions),
				)
				ev := nodeEvent(EventNodeSkipped, runID, node)
				ev.Reason = gateRes.Reason
				ev.EdgeConditions = gateRes.Conditions
				emit(ev)
				s.metrics.RecordNodeSkipped(NormalizeType(node.Type))
				res.Summary.NodesSkipped++
				continue
			}
		}

		rendered := s.templates.Render(node.Config, gateRes.Inputs, initialInput, runContext)

		emit(nodeEvent(EventNodeStarted, runID, node))
		nodeStart := time.Now()
		output, err := s.executeNode(ctx, node, rendered, gateRes, initialInput, runContext)
		nodeDuration := time.Since(nodeStart)
		if err != nil {
			nodeErr := &NodeError{NodeID: node.ID, NodeType: node.Type, Err: err}
			s.logger.Error("node execution failed",
				zap.String("run_id", runID),
				zap.String("node_id", node.ID),
				zap.String("node_type", node.Type),
				zap.Duration("duration", nodeDuration),
				zap.Error(err),
			)
			s.metrics.RecordNode(NormalizeType(node.Type), "failed", nodeDuration)
			ev := nodeEvent(EventNodeFailed, runID, node)
			ev.Error = nodeErr.Error()
			emit(ev)
			return s.fail(res, nodeErr, start, span, emit)
		}

		res.Outputs[node.ID] = output
		res.Log = append(res.Log, LogEntry{NodeID: node.ID, NodeType: node.Type, Output: output})
		res.Summary.NodesExecuted++
		s.metrics.RecordNode(NormalizeType(node.Type), "success", nodeDuration)

		ev := nodeEvent(EventNodeCompleted, runID, node)
		ev.Output = output
		emit(ev)

		if !haveResult && IsExitType(node.Type) {
			result = output
			haveResult = true
		}
	}

	res.Result = result
	res.Summary.Duration = time.Since(start)
	s.metrics.RecordRun("completed", res.Summary.Duration)
	s.logger.Info("workflow run completed",
		zap.String("run_id", runID),
		zap.Int("nodes_executed", res.Summary.NodesExecuted),
		zap.Int("nodes_skipped", res.Summary.NodesSkipped),
		zap.Duration("duration", res.Summary.Duration),
	)

	emit(Event{
		Type:      EventWorkflowDone,
		RunID:     runID,
		Timestamp: time.Now(),
		Result:    result,
		Log:       res.Log,
		Summary:   &res.Summary,
	})
	return res, nil
}

// fail records the run failure once and emits the terminal failure event.
func (s *Scheduler) fail(res *RunResult, err error, start time.Time, span trace.Span, emit EventSink) (*RunResult, error) {
	res.Summary.Duration = time.Since(start)
	span.RecordError(err)
	s.metrics.RecordRun("failed", res.Summary.Duration)
	s.logger.Error("workflow run failed",
		zap.String("run_id", res.RunID),
		zap.Error(err),
	)
	emit(Event{
		Type:      EventWorkflowFailed,
		RunID:     res.RunID,
		Timestamp: time.Now(),
		Error:     err.Error(),
	})
	return res, err
}

// executeNode dispatches one node. Entry, exit, and default pseudo-types get
// built-in semantics without a registry lookup; everything else goes through
// the executor registry by exact type string.
func (s *Scheduler) executeNode(ctx context.Context, node *Node, renderedConfig map[string]any, gateRes GateResult, initialInput any, runContext map[string]any) (any, error) {
	ctx, span := tracer.Start(ctx, "node.execute",
		trace.WithAttributes(
			attribute.String("node.id", node.ID),
			attribute.String("node.type", node.Type),
		),
	)
	defer span.End()

	switch {
	case IsEntryType(node.Type):
		return initialInput, nil
	case IsExitType(node.Type), IsDefaultType(node.Type):
		if len(gateRes.Inputs) > 0 {
			return gateRes.Inputs[0].Value, nil
		}
		return nil, nil
	}

	if s.registry == nil {
		return nil, &MissingRegistryError{NodeType: node.Type}
	}
	executor, ok := s.registry.Get(node.Type)
	if !ok {
		// Legacy alias-typed nodes dispatch to the canonical executor.
		executor, ok = s.registry.Get(NormalizeType(node.Type))
	}
	if !ok {
		return nil, &MissingExecutorError{NodeType: node.Type}
	}

	dispatched := *node
	dispatched.Config = renderedConfig
	output, err := executor.Execute(ctx, &dispatched, gateRes.InputsBySource(), runContext)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return output, nil
}

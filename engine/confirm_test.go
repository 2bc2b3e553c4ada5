package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubResolver implements DecisionResolver for gate testing.
type stubResolver struct {
	decision Decision
	err      error
	block    bool
}

func (r *stubResolver) Await(ctx context.Context, runID, confirmID string) (Decision, error) {
	if r.block {
		<-ctx.Done()
		return DecisionDeny, ctx.Err()
	}
	return r.decision, r.err
}

// sideEffectWorkflow builds start -> http_request -> end.
func sideEffectWorkflow() *Workflow {
	return linearWorkflow()
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func TestConfirmGate_DenyPreventsAllExecution(t *testing.T) {
	t.Parallel()
	ex := &mockExecutor{output: "never"}
	registry := NewRegistry(nil)
	registry.Register("http_request", ex)

	gate := NewConfirmGate(&stubResolver{decision: DecisionDeny}, nil)
	runner := NewStreamingRunner(NewScheduler(registry, nil), nil, WithConfirmGate(gate))

	var collected []Event
	for ev := range runner.Run(context.Background(), sideEffectWorkflow(), nil) {
		collected = append(collected, ev)
	}

	assert.Equal(t, []EventType{EventConfirmRequired, EventConfirmed, EventWorkflowFailed}, eventTypes(collected))
	assert.Equal(t, string(DecisionDeny), collected[1].Decision)
	assert.Equal(t, ErrConfirmDenied, collected[2].Error)
	// The scheduler was never invoked: zero executor calls, zero side effects.
	assert.Equal(t, int32(0), ex.callCount.Load())
}

func TestConfirmGate_AllowResumesScheduling(t *testing.T) {
	t.Parallel()
	ex := &mockExecutor{output: "done"}
	registry := NewRegistry(nil)
	registry.Register("http_request", ex)

	gate := NewConfirmGate(&stubResolver{decision: DecisionAllow}, nil)
	runner := NewStreamingRunner(NewScheduler(registry, nil), nil, WithConfirmGate(gate))

	var collected []Event
	for ev := range runner.Run(context.Background(), sideEffectWorkflow(), nil) {
		collected = append(collected, ev)
	}

	require.GreaterOrEqual(t, len(collected), 3)
	assert.Equal(t, EventConfirmRequired, collected[0].Type)
	assert.Equal(t, EventConfirmed, collected[1].Type)
	assert.Equal(t, string(DecisionAllow), collected[1].Decision)
	assert.Equal(t, EventWorkflowDone, collected[len(collected)-1].Type)
	assert.Equal(t, int32(1), ex.callCount.Load())
}

func TestConfirmGate_DefaultDecisionIsDeny(t *testing.T) {
	t.Parallel()
	var required Event
	gate := NewConfirmGate(&stubResolver{decision: DecisionDeny}, nil)
	gate.Confirm(context.Background(), "run-1", func(ev Event) {
		if ev.Type == EventConfirmRequired {
			required = ev
		}
	})
	assert.Equal(t, string(DecisionDeny), required.Decision)
	assert.NotEmpty(t, required.ConfirmID)
}

func TestConfirmGate_TimeoutDenies(t *testing.T) {
	t.Parallel()
	gate := NewConfirmGate(&stubResolver{block: true}, nil, WithConfirmTimeout(20*time.Millisecond))

	var confirmed Event
	allowed := gate.Confirm(context.Background(), "run-1", func(ev Event) {
		if ev.Type == EventConfirmed {
			confirmed = ev
		}
	})
	assert.False(t, allowed)
	assert.Equal(t, string(DecisionDeny), confirmed.Decision)
}

func TestConfirmGate_ResolverErrorDenies(t *testing.T) {
	t.Parallel()
	gate := NewConfirmGate(&stubResolver{decision: DecisionAllow, err: context.DeadlineExceeded}, nil)

	allowed := gate.Confirm(context.Background(), "run-1", func(Event) {})
	assert.False(t, allowed)
}

func TestStreamingRunner_NoSideEffectsSkipsConfirm(t *testing.T) {
	t.Parallel()
	registry := NewRegistry(nil)
	registry.Register("task", &mockExecutor{output: "ok"})
	gate := NewConfirmGate(&stubResolver{decision: DecisionDeny}, nil)
	runner := NewStreamingRunner(NewScheduler(registry, nil), nil, WithConfirmGate(gate))

	wf := &Workflow{
		ID: "wf-pure",
		Nodes: []Node{
			{ID: "start", Type: "start"},
			{ID: "t", Type: "task"},
		},
		Edges: []Edge{{Source: "start", Target: "t"}},
	}

	var collected []Event
	for ev := range runner.Run(context.Background(), wf, nil) {
		collected = append(collected, ev)
	}

	for _, ev := range collected {
		assert.NotEqual(t, EventConfirmRequired, ev.Type)
	}
	assert.Equal(t, EventWorkflowDone, collected[len(collected)-1].Type)
}

package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chainWorkflow builds start -> t1 -> t2 -> ... -> tn, all of type "task".
func chainWorkflow(n int) *Workflow {
	wf := &Workflow{ID: fmt.Sprintf("wf-chain-%d", n)}
	wf.Nodes = append(wf.Nodes, Node{ID: "start", Type: "start"})
	prev := "start"
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("t%d", i)
		wf.Nodes = append(wf.Nodes, Node{ID: id, Type: "task"})
		wf.Edges = append(wf.Edges, Edge{Source: prev, Target: id})
		prev = id
	}
	return wf
}

func TestStreamingRunner_DeliversFullSequence(t *testing.T) {
	t.Parallel()
	registry := NewRegistry(nil)
	registry.Register("http_request", &mockExecutor{output: "ok"})
	runner := NewStreamingRunner(NewScheduler(registry, nil), nil)

	events := runner.Run(context.Background(), linearWorkflow(), map[string]any{"message": "test"})

	var collected []Event
	for ev := range events {
		collected = append(collected, ev)
	}

	// start, http, end: three started/completed pairs plus the terminal.
	require.Len(t, collected, 7)
	last := collected[len(collected)-1]
	assert.Equal(t, EventWorkflowDone, last.Type)
	require.NotNil(t, last.Summary)
	assert.Equal(t, 3, last.Summary.NodesExecuted)

	terminals := 0
	for _, ev := range collected {
		if ev.Terminal() {
			terminals++
		}
	}
	assert.Equal(t, 1, terminals)
}

func TestStreamingRunner_OverflowDropsButNeverBlocksProducer(t *testing.T) {
	t.Parallel()
	ex := &mockExecutor{output: "ok"}
	registry := NewRegistry(nil)
	registry.Register("task", ex)
	runner := NewStreamingRunner(NewScheduler(registry, nil), nil, WithQueueCapacity(2))

	const nodes = 30
	events := runner.Run(context.Background(), chainWorkflow(nodes), nil)

	// Do not consume: the producer must still execute every node, dropping
	// non-terminal events instead of blocking.
	require.Eventually(t, func() bool {
		return ex.callCount.Load() == int32(nodes)
	}, 2*time.Second, 5*time.Millisecond)

	var collected []Event
	for ev := range events {
		collected = append(collected, ev)
	}

	// Some events were dropped, but the terminal event arrived last.
	assert.Less(t, len(collected), 2*(nodes+1)+1)
	require.NotEmpty(t, collected)
	assert.Equal(t, EventWorkflowDone, collected[len(collected)-1].Type)
}

func TestStreamingRunner_TerminalEventAlwaysDelivered(t *testing.T) {
	t.Parallel()
	registry := NewRegistry(nil)
	registry.Register("task", &mockExecutor{output: "ok"})
	runner := NewStreamingRunner(NewScheduler(registry, nil), nil, WithQueueCapacity(1))

	events := runner.Run(context.Background(), chainWorkflow(10), nil)

	// Drain slowly; whatever is dropped, the stream must end with exactly
	// one terminal event.
	var last Event
	count := 0
	for ev := range events {
		last = ev
		count++
		time.Sleep(time.Millisecond)
	}
	require.Positive(t, count)
	assert.True(t, last.Terminal())
}

func TestStreamingRunner_ConsumerCancellationStopsProducer(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})
	ex := &mockExecutor{
		fn: func(ctx context.Context, node *Node, inputs map[string]any, runContext map[string]any) (any, error) {
			select {
			case started <- struct{}{}:
			default:
			}
			select {
			case <-release:
				return "ok", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}
	registry := NewRegistry(nil)
	registry.Register("task", ex)
	runner := NewStreamingRunner(NewScheduler(registry, nil), nil)

	events := runner.Run(ctx, chainWorkflow(5), nil)

	<-started
	cancel()
	close(release)

	// The stream must close shortly after cancellation; no execution is
	// left running unattended.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-events:
			if !open {
				assert.LessOrEqual(t, ex.callCount.Load(), int32(2))
				return
			}
		case <-deadline:
			t.Fatal("stream did not close after cancellation")
		}
	}
}

func TestStreamingRunner_CyclicWorkflowFailsWithoutNodeEvents(t *testing.T) {
	t.Parallel()
	runner := NewStreamingRunner(NewScheduler(nil, nil), nil)

	wf := &Workflow{
		ID: "wf-cycle",
		Nodes: []Node{
			{ID: "a", Type: "start"},
			{ID: "b", Type: "default"},
		},
		Edges: []Edge{
			{Source: "a", Target: "b"},
			{Source: "b", Target: "a"},
		},
	}

	var collected []Event
	for ev := range runner.Run(context.Background(), wf, nil) {
		collected = append(collected, ev)
	}

	require.Len(t, collected, 1)
	assert.Equal(t, EventWorkflowFailed, collected[0].Type)
	assert.Contains(t, collected[0].Error, "cycle")
}

type capturingRecorder struct {
	mu         sync.Mutex
	workflowID string
	res        *RunResult
	err        error
	calls      int
}

func (r *capturingRecorder) SaveRun(_ context.Context, workflowID string, res *RunResult, runErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workflowID = workflowID
	r.res = res
	r.err = runErr
	r.calls++
	return nil
}

func TestStreamingRunner_RecordsRunOutcome(t *testing.T) {
	t.Parallel()
	registry := NewRegistry(nil)
	registry.Register("task", &mockExecutor{output: "ok"})
	rec := &capturingRecorder{}
	runner := NewStreamingRunner(NewScheduler(registry, nil), nil, WithRunRecorder(rec))

	for range runner.Run(context.Background(), chainWorkflow(2), nil) {
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Equal(t, 1, rec.calls)
	assert.Equal(t, "wf-chain-2", rec.workflowID)
	require.NotNil(t, rec.res)
	assert.NoError(t, rec.err)
	assert.Equal(t, 3, rec.res.Summary.NodesExecuted)
}

func TestStreamingRunner_RecordsDeniedRun(t *testing.T) {
	t.Parallel()
	registry := NewRegistry(nil)
	registry.Register("http_request", &mockExecutor{output: "sent"})
	rec := &capturingRecorder{}
	gate := NewConfirmGate(&stubResolver{decision: DecisionDeny}, nil)
	runner := NewStreamingRunner(NewScheduler(registry, nil), nil,
		WithConfirmGate(gate),
		WithRunRecorder(rec),
	)

	wf := &Workflow{
		ID: "wf-denied",
		Nodes: []Node{
			{ID: "a", Type: "start"},
			{ID: "b", Type: "http_request"},
		},
		Edges: []Edge{{Source: "a", Target: "b"}},
	}
	for range runner.Run(context.Background(), wf, nil) {
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Equal(t, 1, rec.calls)
	require.Error(t, rec.err)
	assert.Equal(t, ErrConfirmDenied, rec.err.Error())
}

package confirm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasflow/canvasflow/engine"
)

func TestMemoryResolver_ResolveThenAwait(t *testing.T) {
	t.Parallel()
	r := NewMemoryResolver(nil)

	require.NoError(t, r.Resolve(context.Background(), "run-1", "c-1", engine.DecisionAllow))

	decision, err := r.Await(context.Background(), "run-1", "c-1")
	require.NoError(t, err)
	assert.Equal(t, engine.DecisionAllow, decision)
}

func TestMemoryResolver_AwaitThenResolve(t *testing.T) {
	t.Parallel()
	r := NewMemoryResolver(nil)

	done := make(chan engine.Decision, 1)
	go func() {
		decision, err := r.Await(context.Background(), "run-1", "c-1")
		if err == nil {
			done <- decision
		}
	}()

	// Give Await a moment to register, then resolve.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, r.Resolve(context.Background(), "run-1", "c-1", engine.DecisionDeny))

	select {
	case decision := <-done:
		assert.Equal(t, engine.DecisionDeny, decision)
	case <-time.After(time.Second):
		t.Fatal("Await did not return")
	}
}

func TestMemoryResolver_AwaitCancelled(t *testing.T) {
	t.Parallel()
	r := NewMemoryResolver(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	decision, err := r.Await(ctx, "run-1", "c-1")
	require.Error(t, err)
	assert.Equal(t, engine.DecisionDeny, decision)
}

func TestMemoryResolver_FirstDecisionWins(t *testing.T) {
	t.Parallel()
	r := NewMemoryResolver(nil)

	require.NoError(t, r.Resolve(context.Background(), "run-1", "c-1", engine.DecisionDeny))
	require.NoError(t, r.Resolve(context.Background(), "run-1", "c-1", engine.DecisionAllow))

	decision, err := r.Await(context.Background(), "run-1", "c-1")
	require.NoError(t, err)
	assert.Equal(t, engine.DecisionDeny, decision)
}

func TestMemoryResolver_IndependentKeys(t *testing.T) {
	t.Parallel()
	r := NewMemoryResolver(nil)

	require.NoError(t, r.Resolve(context.Background(), "run-1", "c-1", engine.DecisionAllow))
	require.NoError(t, r.Resolve(context.Background(), "run-2", "c-1", engine.DecisionDeny))

	d1, err := r.Await(context.Background(), "run-1", "c-1")
	require.NoError(t, err)
	d2, err := r.Await(context.Background(), "run-2", "c-1")
	require.NoError(t, err)
	assert.Equal(t, engine.DecisionAllow, d1)
	assert.Equal(t, engine.DecisionDeny, d2)
}

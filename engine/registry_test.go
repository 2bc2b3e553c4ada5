package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	ex := &mockExecutor{output: "x"}
	r.Register("http_request", ex)

	got, ok := r.Get("http_request")
	require.True(t, ok)
	assert.Same(t, Executor(ex), got)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_LookupIsExactString(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	r.Register("http_request", &mockExecutor{})

	// The registry does not normalize; alias resolution is the caller's job.
	_, ok := r.Get("HTTP_REQUEST")
	assert.False(t, ok)
	_, ok = r.Get("http")
	assert.False(t, ok)
}

func TestRegistry_ReplaceBinding(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	first := &mockExecutor{output: 1}
	second := &mockExecutor{output: 2}
	r.Register("task", first)
	r.Register("task", second)

	got, ok := r.Get("task")
	require.True(t, ok)
	assert.Same(t, Executor(second), got)
}

func TestRegistry_TypesSorted(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	r.Register("c", &mockExecutor{})
	r.Register("a", &mockExecutor{})
	r.Register("b", &mockExecutor{})

	assert.Equal(t, []string{"a", "b", "c"}, r.Types())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register("task", &mockExecutor{})
		}()
		go func() {
			defer wg.Done()
			r.Get("task")
		}()
	}
	wg.Wait()
}

func TestExecutorFunc(t *testing.T) {
	t.Parallel()
	fn := ExecutorFunc(func(ctx context.Context, node *Node, inputs map[string]any, runContext map[string]any) (any, error) {
		return node.ID, nil
	})
	out, err := fn.Execute(context.Background(), &Node{ID: "n1"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "n1", out)
}

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitedExecutor_PassesThrough(t *testing.T) {
	t.Parallel()
	inner := &mockExecutor{output: "ok"}
	limited := NewRateLimitedExecutor(inner, 100, 1)

	out, err := limited.Execute(context.Background(), &Node{ID: "n"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(1), inner.callCount.Load())
}

func TestRateLimitedExecutor_CancelledWaitFails(t *testing.T) {
	t.Parallel()
	inner := &mockExecutor{output: "ok"}
	// One token per hour with burst 1: the second call must wait.
	limited := NewRateLimitedExecutor(inner, 1.0/3600, 1)

	_, err := limited.Execute(context.Background(), &Node{ID: "n"}, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = limited.Execute(ctx, &Node{ID: "n"}, nil, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), inner.callCount.Load())
}

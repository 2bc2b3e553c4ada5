package engine

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedExecutor wraps an executor with a token-bucket rate limit
// shared across all runs dispatching to it. Waiting respects the caller's
// context, so an abandoned stream does not keep a dispatch queued.
type RateLimitedExecutor struct {
	inner   Executor
	limiter *rate.Limiter
}

// NewRateLimitedExecutor wraps inner with a limit of rps executions per
// second and the given burst.
func NewRateLimitedExecutor(inner Executor, rps float64, burst int) *RateLimitedExecutor {
	return &RateLimitedExecutor{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (e *RateLimitedExecutor) Execute(ctx context.Context, node *Node, inputs map[string]any, runContext map[string]any) (any, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return e.inner.Execute(ctx, node, inputs, runContext)
}

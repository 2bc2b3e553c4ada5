package executors

import (
	"context"
	"time"

	"github.com/canvasflow/canvasflow/engine"
)

// Delay waits for the configured "duration" (Go duration string or seconds)
// before passing its inputs through. Cancellation interrupts the wait.
func Delay() engine.Executor {
	return engine.ExecutorFunc(func(ctx context.Context, node *engine.Node, inputs map[string]any, runContext map[string]any) (any, error) {
		d, err := durationOption(node.Config, "duration", time.Second)
		if err != nil {
			return nil, err
		}

		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		return map[string]any{
			"waited": d.String(),
			"inputs": inputs,
		}, nil
	})
}

package executors

import (
	"context"

	"github.com/canvasflow/canvasflow/engine"
)

// Transform returns the node's rendered config as its output. Placeholders
// in the config have already been substituted by the scheduler, so a
// transform node reshapes upstream data purely through its config mapping.
func Transform() engine.Executor {
	return engine.ExecutorFunc(func(ctx context.Context, node *engine.Node, inputs map[string]any, runContext map[string]any) (any, error) {
		out := make(map[string]any, len(node.Config))
		for k, v := range node.Config {
			out[k] = v
		}
		if len(out) == 0 {
			return inputs, nil
		}
		return out, nil
	})
}

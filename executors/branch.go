package executors

import (
	"context"
	"fmt"
	"strconv"

	"github.com/expr-lang/expr"

	"github.com/canvasflow/canvasflow/engine"
)

// Branch evaluates the node's "condition" expression against its inputs and
// emits the branch marker consumed by downstream edge conditions:
// {"branch": "true"|"false", "result": bool}.
func Branch() engine.Executor {
	return engine.ExecutorFunc(func(ctx context.Context, node *engine.Node, inputs map[string]any, runContext map[string]any) (any, error) {
		condition, err := requireString(node.Config, "condition")
		if err != nil {
			return nil, err
		}

		env := branchEnv(inputs, runContext)
		program, err := expr.Compile(condition, expr.Env(env), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile condition %q: %w", condition, err)
		}
		out, err := expr.Run(program, env)
		if err != nil {
			return nil, fmt.Errorf("evaluate condition %q: %w", condition, err)
		}
		result, ok := out.(bool)
		if !ok {
			return nil, fmt.Errorf("condition %q did not evaluate to a boolean", condition)
		}

		return map[string]any{
			"branch": strconv.FormatBool(result),
			"result": result,
		}, nil
	})
}

// branchEnv flattens map-shaped inputs into the expression environment so
// conditions can reference upstream fields directly. Earlier inputs win on
// key collisions.
func branchEnv(inputs map[string]any, runContext map[string]any) map[string]any {
	env := map[string]any{
		"inputs":  inputs,
		"context": runContext,
	}
	for _, v := range inputs {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		for k, fv := range m {
			if _, exists := env[k]; !exists {
				env[k] = fv
			}
		}
	}
	return env
}

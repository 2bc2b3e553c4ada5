package executors

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/canvasflow/canvasflow/engine"
)

// Database runs the node's "query" as raw SQL and returns the result rows.
// Optional "args" (list) are bound as query parameters.
func Database(db *gorm.DB) engine.Executor {
	return engine.ExecutorFunc(func(ctx context.Context, node *engine.Node, inputs map[string]any, runContext map[string]any) (any, error) {
		if db == nil {
			return nil, fmt.Errorf("no database configured")
		}
		query, err := requireString(node.Config, "query")
		if err != nil {
			return nil, err
		}

		var args []any
		if raw, ok := node.Config["args"].([]any); ok {
			args = raw
		}

		var rows []map[string]any
		if err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("execute query: %w", err)
		}

		return map[string]any{
			"rows":  rows,
			"count": len(rows),
		}, nil
	})
}

package confirm

import (
	"context"

	"github.com/canvasflow/canvasflow/engine"
)

// Resolver both awaits decisions (engine side) and records them (API
// side). MemoryResolver and RedisResolver implement it.
type Resolver interface {
	engine.DecisionResolver
	Resolve(ctx context.Context, runID, confirmID string, decision engine.Decision) error
}

var (
	_ Resolver = (*MemoryResolver)(nil)
	_ Resolver = (*RedisResolver)(nil)
)

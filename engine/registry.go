package engine

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Executor performs a node's actual work given its rendered configuration,
// the selected upstream inputs keyed by source node ID, and the run's shared
// context map. Executors are free to perform blocking I/O; the kernel does
// not impose a per-node timeout — timeouts, if desired, are each executor's
// responsibility. Implementations must be safe for concurrent use across
// runs.
type Executor interface {
	Execute(ctx context.Context, node *Node, inputs map[string]any, runContext map[string]any) (any, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, node *Node, inputs map[string]any, runContext map[string]any) (any, error)

func (f ExecutorFunc) Execute(ctx context.Context, node *Node, inputs map[string]any, runContext map[string]any) (any, error) {
	return f(ctx, node, inputs, runContext)
}

// Registry maps node type strings to executor instances. Lookups are by
// exact type string; the scheduler falls back to the canonical name (see
// NormalizeType) when an alias-typed node has no exact binding. The registry
// is the only resource shared between concurrent runs and is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]Executor
	logger    *zap.Logger
}

// NewRegistry creates an empty executor registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		executors: make(map[string]Executor),
		logger:    logger.With(zap.String("component", "executor_registry")),
	}
}

// Register binds an executor to a node type, replacing any previous binding.
func (r *Registry) Register(nodeType string, ex Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[nodeType] = ex
	r.logger.Debug("executor registered", zap.String("node_type", nodeType))
}

// Get returns the executor bound to the exact node type string.
func (r *Registry) Get(nodeType string) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ex, ok := r.executors[nodeType]
	return ex, ok
}

// Types returns the registered node types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.executors))
	for t := range r.executors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

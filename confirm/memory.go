package confirm

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/canvasflow/canvasflow/engine"
)

// MemoryResolver resolves confirmation decisions within a single process.
// Resolve may arrive before or after Await; a buffered channel per key makes
// the order irrelevant.
type MemoryResolver struct {
	mu      sync.Mutex
	pending map[string]chan engine.Decision
	logger  *zap.Logger
}

// NewMemoryResolver creates an in-memory decision resolver.
func NewMemoryResolver(logger *zap.Logger) *MemoryResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryResolver{
		pending: make(map[string]chan engine.Decision),
		logger:  logger.With(zap.String("component", "memory_resolver")),
	}
}

func decisionKey(runID, confirmID string) string {
	return runID + "/" + confirmID
}

func (r *MemoryResolver) channel(key string) chan engine.Decision {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.pending[key]
	if !ok {
		ch = make(chan engine.Decision, 1)
		r.pending[key] = ch
	}
	return ch
}

// Await blocks until the decision for (runID, confirmID) is resolved or ctx
// is done.
func (r *MemoryResolver) Await(ctx context.Context, runID, confirmID string) (engine.Decision, error) {
	key := decisionKey(runID, confirmID)
	ch := r.channel(key)
	defer func() {
		r.mu.Lock()
		delete(r.pending, key)
		r.mu.Unlock()
	}()

	select {
	case decision := <-ch:
		return decision, nil
	case <-ctx.Done():
		return engine.DecisionDeny, ctx.Err()
	}
}

// Resolve records the decision for (runID, confirmID). Resolving the same
// key twice keeps the first decision.
func (r *MemoryResolver) Resolve(ctx context.Context, runID, confirmID string, decision engine.Decision) error {
	ch := r.channel(decisionKey(runID, confirmID))
	select {
	case ch <- decision:
	default:
		r.logger.Debug("decision already resolved",
			zap.String("run_id", runID),
			zap.String("confirm_id", confirmID),
		)
	}
	return nil
}

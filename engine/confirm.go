package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/canvasflow/canvasflow/internal/metrics"
)

// Decision is an externally-resolved allow/deny verdict for a side-effecting
// workflow run.
type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionDeny  Decision = "deny"
)

// ErrConfirmDenied is the terminal error string for a denied run.
const ErrConfirmDenied = "side_effect_confirm_denied"

// DecisionResolver awaits the external allow/deny decision keyed by
// (runID, confirmID). Await blocks until the decision is resolved or ctx is
// done; resolver implementations live outside the kernel (in-memory, Redis).
type DecisionResolver interface {
	Await(ctx context.Context, runID, confirmID string) (Decision, error)
}

// ConfirmGate pauses execution of workflows containing side-effect node
// types until an external decision arrives. Denial (including the implicit
// default on error or timeout) guarantees the scheduler is never invoked,
// so a denied run performs zero side effects.
type ConfirmGate struct {
	resolver DecisionResolver
	// timeout bounds the wait for a decision; zero means wait indefinitely,
	// matching the default behavior where an unresolved confirmation denies.
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Collector
}

// ConfirmGateOption configures a ConfirmGate.
type ConfirmGateOption func(*ConfirmGate)

// WithConfirmTimeout bounds the decision wait; on expiry the run is denied.
func WithConfirmTimeout(d time.Duration) ConfirmGateOption {
	return func(g *ConfirmGate) {
		g.timeout = d
	}
}

// WithConfirmMetrics wires a metrics collector into the gate.
func WithConfirmMetrics(c *metrics.Collector) ConfirmGateOption {
	return func(g *ConfirmGate) {
		g.metrics = c
	}
}

// NewConfirmGate creates a confirmation gate backed by the given resolver.
func NewConfirmGate(resolver DecisionResolver, logger *zap.Logger, opts ...ConfirmGateOption) *ConfirmGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &ConfirmGate{
		resolver: resolver,
		logger:   logger.With(zap.String("component", "confirm_gate")),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Confirm emits the confirm-required event, awaits the external decision,
// and emits the confirmed event. It returns true only on an explicit allow;
// every other outcome (deny, resolver error, timeout, cancellation) denies.
func (g *ConfirmGate) Confirm(ctx context.Context, runID string, emit EventSink) bool {
	confirmID := uuid.NewString()
	emit(Event{
		Type:      EventConfirmRequired,
		RunID:     runID,
		Timestamp: time.Now(),
		ConfirmID: confirmID,
		Decision:  string(DecisionDeny),
	})

	decision := DecisionDeny
	if g.resolver != nil {
		awaitCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			awaitCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		resolved, err := g.resolver.Await(awaitCtx, runID, confirmID)
		if err != nil {
			g.logger.Warn("confirm decision not resolved, denying",
				zap.String("run_id", runID),
				zap.String("confirm_id", confirmID),
				zap.Error(err),
			)
		} else if resolved == DecisionAllow {
			decision = DecisionAllow
		}
	}

	g.metrics.RecordConfirmDecision(string(decision))
	g.logger.Info("confirm decision",
		zap.String("run_id", runID),
		zap.String("confirm_id", confirmID),
		zap.String("decision", string(decision)),
	)
	emit(Event{
		Type:      EventConfirmed,
		RunID:     runID,
		Timestamp: time.Now(),
		ConfirmID: confirmID,
		Decision:  string(decision),
	})
	return decision == DecisionAllow
}

package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/canvasflow/canvasflow/internal/metrics"
)

// DefaultQueueCapacity is the bound on the event queue between the producer
// goroutine and the consumer.
const DefaultQueueCapacity = 1000

// StreamingRunner wraps the scheduler in a cancellable, backpressured event
// stream.
//
// Backpressure policy: when the queue is full, the newest non-terminal event
// is dropped silently — the producer never blocks and never fails. This is a
// deliberate lossy-streaming tradeoff favoring producer liveness over event
// completeness. The single terminal event is exempt and always delivered.
//
// Cancellation: cancelling the consumer's context stops the producer between
// nodes and at executor calls; the producer's exit closes the channel, so no
// execution is left running after the stream is abandoned.
type StreamingRunner struct {
	scheduler *Scheduler
	gate      *ConfirmGate
	capacity  int
	recorder  RunRecorder
	logger    *zap.Logger
	metrics   *metrics.Collector
}

// RunRecorder receives the outcome of every finished run, including denied
// and failed ones. Implemented by the persistence layer.
type RunRecorder interface {
	SaveRun(ctx context.Context, workflowID string, res *RunResult, runErr error) error
}

// StreamOption configures a StreamingRunner.
type StreamOption func(*StreamingRunner)

// WithQueueCapacity overrides the bounded queue capacity.
func WithQueueCapacity(n int) StreamOption {
	return func(r *StreamingRunner) {
		if n > 0 {
			r.capacity = n
		}
	}
}

// WithConfirmGate enables the side-effect confirmation gate for workflows
// containing side-effect node types.
func WithConfirmGate(g *ConfirmGate) StreamOption {
	return func(r *StreamingRunner) {
		r.gate = g
	}
}

// WithRunRecorder persists the outcome of each run after its terminal event.
func WithRunRecorder(rec RunRecorder) StreamOption {
	return func(r *StreamingRunner) {
		r.recorder = rec
	}
}

// WithStreamMetrics wires a metrics collector into the runner.
func WithStreamMetrics(c *metrics.Collector) StreamOption {
	return func(r *StreamingRunner) {
		r.metrics = c
	}
}

// NewStreamingRunner creates a streaming runner around the scheduler.
func NewStreamingRunner(scheduler *Scheduler, logger *zap.Logger, opts ...StreamOption) *StreamingRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &StreamingRunner{
		scheduler: scheduler,
		capacity:  DefaultQueueCapacity,
		logger:    logger.With(zap.String("component", "streaming_runner")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts the workflow in a background goroutine and returns the live
// event stream. The stream ends with exactly one terminal event
// (workflow_complete or workflow_error) and is then closed. Cancel ctx to
// abandon the run early.
func (r *StreamingRunner) Run(ctx context.Context, wf *Workflow, initialInput any) <-chan Event {
	return r.RunWithContext(ctx, wf, initialInput, make(map[string]any))
}

// RunWithContext is Run with a caller-supplied shared context map, readable
// and writable by every node execution within the run.
func (r *StreamingRunner) RunWithContext(ctx context.Context, wf *Workflow, initialInput any, runContext map[string]any) <-chan Event {
	events := make(chan Event, r.capacity)
	runID := uuid.NewString()

	go func() {
		defer close(events)

		emit := func(ev Event) {
			if ev.Terminal() {
				// The terminal event is never dropped; block until the
				// consumer takes it or abandons the stream.
				select {
				case events <- ev:
				case <-ctx.Done():
				}
				return
			}
			select {
			case events <- ev:
			default:
				r.metrics.RecordDroppedEvent()
				r.logger.Debug("event queue full, dropping event",
					zap.String("run_id", ev.RunID),
					zap.String("event_type", string(ev.Type)),
				)
			}
		}

		if r.gate != nil && wf.HasSideEffects() {
			if !r.gate.Confirm(ctx, runID, emit) {
				emit(Event{
					Type:      EventWorkflowFailed,
					RunID:     runID,
					Timestamp: time.Now(),
					Error:     ErrConfirmDenied,
				})
				r.record(wf.ID, &RunResult{RunID: runID}, errors.New(ErrConfirmDenied))
				return
			}
		}

		res, err := r.scheduler.run(ctx, wf, initialInput, runContext, runID, emit)
		if err != nil {
			// The scheduler already emitted the terminal failure event.
			r.logger.Debug("streamed run finished with error",
				zap.String("run_id", runID),
				zap.Error(err),
			)
		}
		r.record(wf.ID, res, err)
	}()

	return events
}

// record persists the run outcome through the configured recorder. The save
// runs on a detached context so an abandoned stream still leaves a record.
func (r *StreamingRunner) record(workflowID string, res *RunResult, runErr error) {
	if r.recorder == nil || res == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.recorder.SaveRun(ctx, workflowID, res, runErr); err != nil {
		r.logger.Warn("failed to persist run outcome",
			zap.String("run_id", res.RunID),
			zap.Error(err),
		)
	}
}

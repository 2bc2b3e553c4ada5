package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/canvasflow/canvasflow/engine"
)

// SSEWriter frames engine events as server-sent events.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter prepares the response for event streaming. It fails when the
// underlying writer cannot flush.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// Send writes one event frame and flushes it to the client.
func (s *SSEWriter) Send(ev engine.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return fmt.Errorf("write event frame: %w", err)
	}
	s.flusher.Flush()
	return nil
}

// StreamSSE drains the event channel into the response. It stops when the
// channel closes or a write fails (client gone).
func StreamSSE(w http.ResponseWriter, events <-chan engine.Event, logger *zap.Logger) error {
	sse, err := NewSSEWriter(w)
	if err != nil {
		return err
	}

	for ev := range events {
		if err := sse.Send(ev); err != nil {
			if logger != nil {
				logger.Debug("SSE client disconnected", zap.Error(err))
			}
			return err
		}
	}
	return nil
}

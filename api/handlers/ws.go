package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/canvasflow/canvasflow/engine"
)

// StreamWebSocket upgrades the request and forwards engine events as JSON
// text messages until the channel closes or the client disconnects.
func StreamWebSocket(w http.ResponseWriter, r *http.Request, events <-chan engine.Event, logger *zap.Logger) error {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return fmt.Errorf("accept websocket: %w", err)
	}
	defer conn.Close(websocket.StatusInternalError, "stream aborted")

	ctx := r.Context()
	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
		if err := writeWS(ctx, conn, data); err != nil {
			if logger != nil {
				logger.Debug("websocket client disconnected", zap.Error(err))
			}
			return err
		}
	}

	return conn.Close(websocket.StatusNormalClosure, "run finished")
}

func writeWS(ctx context.Context, conn *websocket.Conn, data []byte) error {
	return conn.Write(ctx, websocket.MessageText, data)
}

package executors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/canvasflow/canvasflow/engine"
)

// Notification delivers the node's "message" (plus optional "payload") to a
// webhook "url" as a JSON POST.
func Notification(client *http.Client) engine.Executor {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return engine.ExecutorFunc(func(ctx context.Context, node *engine.Node, inputs map[string]any, runContext map[string]any) (any, error) {
		url, err := requireString(node.Config, "url")
		if err != nil {
			return nil, err
		}

		envelope := map[string]any{
			"message":   stringOption(node.Config, "message", ""),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		if payload, ok := node.Config["payload"]; ok {
			envelope["payload"] = payload
		}

		data, err := json.Marshal(envelope)
		if err != nil {
			return nil, fmt.Errorf("encode notification: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("deliver notification: %w", err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("notification endpoint returned %d", resp.StatusCode)
		}

		return map[string]any{
			"delivered": true,
			"status":    resp.StatusCode,
		}, nil
	})
}

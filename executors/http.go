package executors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/canvasflow/canvasflow/engine"
)

const defaultHTTPTimeout = 30 * time.Second

// maxResponseBytes caps how much of a response body is read into node
// output.
const maxResponseBytes = 4 << 20

// HTTPRequest performs the HTTP call described by the node config:
// "url" (required), "method" (default GET), "headers" (map) and "body"
// (string sent verbatim, anything else JSON-encoded).
func HTTPRequest(client *http.Client) engine.Executor {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return engine.ExecutorFunc(func(ctx context.Context, node *engine.Node, inputs map[string]any, runContext map[string]any) (any, error) {
		url, err := requireString(node.Config, "url")
		if err != nil {
			return nil, err
		}
		method := strings.ToUpper(stringOption(node.Config, "method", http.MethodGet))

		var body io.Reader
		contentType := ""
		if raw, ok := node.Config["body"]; ok && raw != nil {
			switch b := raw.(type) {
			case string:
				body = strings.NewReader(b)
			default:
				encoded, err := json.Marshal(b)
				if err != nil {
					return nil, fmt.Errorf("encode request body: %w", err)
				}
				body = bytes.NewReader(encoded)
				contentType = "application/json"
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if headers, ok := node.Config["headers"].(map[string]any); ok {
			for k, v := range headers {
				if s, ok := v.(string); ok {
					req.Header.Set(k, s)
				}
			}
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, url, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		return map[string]any{
			"status": resp.StatusCode,
			"body":   decodeBody(resp.Header.Get("Content-Type"), data),
		}, nil
	})
}

// decodeBody parses JSON responses into structured data and returns
// everything else as a string.
func decodeBody(contentType string, data []byte) any {
	if strings.Contains(contentType, "application/json") {
		var parsed any
		if err := json.Unmarshal(data, &parsed); err == nil {
			return parsed
		}
	}
	return string(data)
}

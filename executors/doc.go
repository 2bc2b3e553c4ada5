// Package executors provides the reference node executors shipped with
// CanvasFlow: transform, branch, delay, http_request, database and
// notification. Each executor decodes its own node config and returns a
// JSON-shaped output for downstream nodes.
package executors

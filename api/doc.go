// Package api defines the HTTP surface of CanvasFlow: request/response
// shapes plus the handlers that run workflows, stream run events over SSE
// or WebSocket, and resolve side-effect confirmations.
package api

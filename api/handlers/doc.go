// Package handlers implements the CanvasFlow HTTP handlers and the shared
// response envelope.
package handlers

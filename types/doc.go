// Package types holds the structured error model shared by the CanvasFlow
// API surface.
package types

// Command canvasflow runs the CanvasFlow workflow execution server.
package main

package api

import "github.com/canvasflow/canvasflow/engine"

// RunRequest starts a workflow run. Workflow may be given inline or by
// WorkflowID referencing a stored definition.
type RunRequest struct {
	WorkflowID   string           `json:"workflow_id,omitempty"`
	Workflow     *engine.Workflow `json:"workflow,omitempty"`
	InitialInput map[string]any   `json:"initial_input,omitempty"`
	Context      map[string]any   `json:"context,omitempty"`
}

// ConfirmRequest resolves a pending side-effect confirmation.
type ConfirmRequest struct {
	RunID     string `json:"run_id"`
	ConfirmID string `json:"confirm_id"`
	Decision  string `json:"decision"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

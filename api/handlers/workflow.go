package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/canvasflow/canvasflow/api"
	"github.com/canvasflow/canvasflow/engine"
	"github.com/canvasflow/canvasflow/store"
	"github.com/canvasflow/canvasflow/types"
)

// WorkflowHandler serves workflow CRUD and run execution.
type WorkflowHandler struct {
	store  *store.Store
	runner *engine.StreamingRunner
	logger *zap.Logger
}

// NewWorkflowHandler wires the workflow endpoints.
func NewWorkflowHandler(st *store.Store, runner *engine.StreamingRunner, logger *zap.Logger) *WorkflowHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowHandler{
		store:  st,
		runner: runner,
		logger: logger.With(zap.String("component", "workflow_handler")),
	}
}

// HandleCreate stores a workflow definition.
func (h *WorkflowHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var wf engine.Workflow
	if err := json.NewDecoder(r.Body).Decode(&wf); err != nil {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "invalid workflow JSON", h.logger)
		return
	}
	if wf.ID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "workflow id is required", h.logger)
		return
	}

	if err := h.store.SaveWorkflow(r.Context(), &wf); err != nil {
		WriteError(w, types.NewError(types.ErrInternalError, "save workflow").WithCause(err), h.logger)
		return
	}
	WriteSuccess(w, map[string]string{"id": wf.ID})
}

// HandleGet returns one stored workflow.
func (h *WorkflowHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	wf, err := h.store.GetWorkflow(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		WriteErrorMessage(w, http.StatusNotFound, types.ErrWorkflowNotFound, "workflow "+id+" not found", h.logger)
		return
	}
	if err != nil {
		WriteError(w, types.NewError(types.ErrInternalError, "load workflow").WithCause(err), h.logger)
		return
	}
	WriteSuccess(w, wf)
}

// HandleList returns all stored workflows.
func (h *WorkflowHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListWorkflows(r.Context())
	if err != nil {
		WriteError(w, types.NewError(types.ErrInternalError, "list workflows").WithCause(err), h.logger)
		return
	}
	WriteSuccess(w, records)
}

// HandleDelete removes a stored workflow.
func (h *WorkflowHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := h.store.DeleteWorkflow(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		WriteErrorMessage(w, http.StatusNotFound, types.ErrWorkflowNotFound, "workflow "+id+" not found", h.logger)
		return
	}
	if err != nil {
		WriteError(w, types.NewError(types.ErrInternalError, "delete workflow").WithCause(err), h.logger)
		return
	}
	WriteSuccess(w, map[string]string{"id": id})
}

// HandleRun executes a workflow and streams its events. The transport is
// SSE by default; ?transport=websocket upgrades instead.
func (h *WorkflowHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req api.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "invalid run request JSON", h.logger)
		return
	}

	wf := req.Workflow
	if wf == nil {
		if req.WorkflowID == "" {
			WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "workflow or workflow_id is required", h.logger)
			return
		}
		stored, err := h.store.GetWorkflow(r.Context(), req.WorkflowID)
		if errors.Is(err, store.ErrNotFound) {
			WriteErrorMessage(w, http.StatusNotFound, types.ErrWorkflowNotFound, "workflow "+req.WorkflowID+" not found", h.logger)
			return
		}
		if err != nil {
			WriteError(w, types.NewError(types.ErrInternalError, "load workflow").WithCause(err), h.logger)
			return
		}
		wf = stored
	}

	runContext := req.Context
	if runContext == nil {
		runContext = map[string]any{}
	}

	h.logger.Info("workflow run requested",
		zap.String("workflow_id", wf.ID),
		zap.Int("nodes", len(wf.Nodes)),
	)

	events := h.runner.RunWithContext(r.Context(), wf, req.InitialInput, runContext)

	if r.URL.Query().Get("transport") == "websocket" {
		_ = StreamWebSocket(w, r, events, h.logger)
		return
	}
	_ = StreamSSE(w, events, h.logger)
}

// HandleListRuns returns recent run records for a workflow.
func (h *WorkflowHandler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := h.store.ListRuns(r.Context(), id, limit)
	if err != nil {
		WriteError(w, types.NewError(types.ErrInternalError, "list runs").WithCause(err), h.logger)
		return
	}
	WriteSuccess(w, records)
}

// HandleGetRun returns one run record.
func (h *WorkflowHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	record, err := h.store.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		WriteErrorMessage(w, http.StatusNotFound, types.ErrRunNotFound, "run "+id+" not found", h.logger)
		return
	}
	if err != nil {
		WriteError(w, types.NewError(types.ErrInternalError, "load run").WithCause(err), h.logger)
		return
	}
	WriteSuccess(w, record)
}

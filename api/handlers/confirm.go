package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/canvasflow/canvasflow/api"
	"github.com/canvasflow/canvasflow/engine"
	"github.com/canvasflow/canvasflow/types"
)

// Resolver delivers confirm decisions to waiting runs.
type Resolver interface {
	Resolve(ctx context.Context, runID, confirmID string, decision engine.Decision) error
}

// ConfirmHandler resolves pending side-effect confirmations.
type ConfirmHandler struct {
	resolver Resolver
	logger   *zap.Logger
}

// NewConfirmHandler wires the confirm endpoint.
func NewConfirmHandler(resolver Resolver, logger *zap.Logger) *ConfirmHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfirmHandler{
		resolver: resolver,
		logger:   logger.With(zap.String("component", "confirm_handler")),
	}
}

// HandleResolve records an allow/deny decision for a pending confirmation.
func (h *ConfirmHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	var req api.ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "invalid confirm request JSON", h.logger)
		return
	}
	if req.RunID == "" || req.ConfirmID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "run_id and confirm_id are required", h.logger)
		return
	}

	decision := engine.DecisionDeny
	if req.Decision == string(engine.DecisionAllow) {
		decision = engine.DecisionAllow
	}

	if err := h.resolver.Resolve(r.Context(), req.RunID, req.ConfirmID, decision); err != nil {
		WriteError(w, types.NewError(types.ErrInternalError, "resolve confirmation").WithCause(err), h.logger)
		return
	}

	h.logger.Info("confirmation resolved",
		zap.String("run_id", req.RunID),
		zap.String("confirm_id", req.ConfirmID),
		zap.String("decision", string(decision)),
	)
	WriteSuccess(w, map[string]string{
		"run_id":     req.RunID,
		"confirm_id": req.ConfirmID,
		"decision":   string(decision),
	})
}

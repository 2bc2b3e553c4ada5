package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/canvasflow/canvasflow/api"
)

// Pinger reports backend reachability.
type Pinger interface {
	Ping(r *http.Request) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	pinger Pinger
	logger *zap.Logger
}

// NewHealthHandler wires the health endpoints. pinger may be nil.
func NewHealthHandler(pinger Pinger, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{pinger: pinger, logger: logger}
}

// HandleHealth reports liveness.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

// HandleReady reports readiness, checking backends when wired.
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(r); err != nil {
			h.logger.Warn("readiness check failed", zap.Error(err))
			WriteJSON(w, http.StatusServiceUnavailable, api.HealthResponse{Status: "unavailable"})
			return
		}
	}
	WriteJSON(w, http.StatusOK, api.HealthResponse{Status: "ready"})
}

// HandleVersion reports the build version.
func (h *HealthHandler) HandleVersion(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, api.HealthResponse{Status: "ok", Version: version})
	}
}

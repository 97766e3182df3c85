package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// ReadyText is the keep-alive answer served at /.
const ReadyText = "Your Bot Is Ready"

// HealthHandler serves liveness endpoints.
type HealthHandler struct {
	backend   string
	startedAt time.Time
	logger    *slog.Logger
}

// NewHealthHandler creates a HealthHandler reporting the storage backend.
func NewHealthHandler(backend string, startedAt time.Time, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{backend: backend, startedAt: startedAt, logger: logger}
}

// Ready answers keep-alive pings.
// GET /
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(ReadyText))
}

// HealthCheck reports status and uptime.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"backend":        h.backend,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

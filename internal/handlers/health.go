package handlers

import (
	"context"
	"net/http"
	"time"
)

const healthTimeout = 2 * time.Second

// HealthHandler responds with service health information.
type HealthHandler struct {
	DB Pinger
}

// Handle implements GET /healthz. It reports 503 when the database is unreachable.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			status, code = "unavailable", http.StatusServiceUnavailable
		}
	}
	respondJSON(r.Context(), w, code, map[string]string{"status": status})
}

// Check implements GET /api/v1/healthcheck.
func (HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondOK(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"}, "OK")
}

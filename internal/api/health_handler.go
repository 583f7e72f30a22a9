package api

import (
	"context"
	"net/http"
	"time"
)

// healthTimeout — общий таймаут проверок /healthz.
const healthTimeout = 3 * time.Second

// Health проверяет зависимости.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK

	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("health check failed", "check", name, "error", err)
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	writeJSON(w, status, resp)
}

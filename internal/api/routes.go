package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		RequestID(),
		Logging(h.logger),
		Recovery(h.logger),
	)

	// Scans
	mux.Handle("POST /api/v1/scans", chain(http.HandlerFunc(h.TriggerScan)))
	mux.Handle("GET /api/v1/scans/status", chain(http.HandlerFunc(h.GetScanStatus)))

	// Posts
	mux.Handle("GET /api/v1/posts/{id}/history", chain(http.HandlerFunc(h.GetPostHistory)))

	h.RegisterOps(mux)
}

// RegisterOps регистрирует служебные маршруты: /healthz и /metrics.
func (h *Handler) RegisterOps(mux *http.ServeMux) {
	mux.Handle("GET /healthz", Recovery(h.logger)(http.HandlerFunc(h.Health)))
	mux.Handle("GET /metrics", promhttp.Handler())
}

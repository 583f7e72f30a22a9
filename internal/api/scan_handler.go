package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shaiso/Relay/internal/scanner"
)

// TriggerScan ставит ручной цикл сканирования.
// POST /api/v1/scans
func (h *Handler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	var req TriggerScanRequest
	// Пустое тело — значения по умолчанию
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, r, "invalid request body")
		return
	}

	jobID, err := h.trigger.Trigger(r.Context(), req.BatchSize)
	if errors.Is(err, scanner.ErrInvalidBatchSize) {
		badRequest(w, r, "batch_size must be positive")
		return
	}
	if err != nil {
		internalError(w, r, h.logger, err)
		return
	}

	requestLogger(r, h.logger).Info("manual scan triggered", "job_id", jobID, "batch_size", req.BatchSize)

	respond(w, http.StatusAccepted, TriggerScanResponse{JobID: jobID, Queued: true})
}

// GetScanStatus возвращает владельца блокировки и последний результат сканирования.
// GET /api/v1/scans/status
func (h *Handler) GetScanStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.status.Status(r.Context())
	if err != nil {
		internalError(w, r, h.logger, err)
		return
	}

	respond(w, http.StatusOK, ScanStatusResponse{
		Lock:     LockFromDomain(st.Lock),
		LastScan: st.LastScan,
	})
}

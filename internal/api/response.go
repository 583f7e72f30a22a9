package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/Relay/internal/repo"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse — тело ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — код, сообщение и id запроса для поиска в логах.
type ErrorDetail struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
}

// DataResponse — тело успешного ответа.
type DataResponse struct {
	Data any `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respond оборачивает данные в {"data": ...}.
func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, DataResponse{Data: data})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{
		Code:      code,
		Message:   message,
		RequestID: RequestIDFrom(r.Context()),
	}})
}

func badRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// internalError логирует причину, клиенту отдаёт только id запроса.
func internalError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	requestLogger(r, logger).Error("internal error", "path", r.URL.Path, "error", err)
	writeError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// handleRepoError отвечает на ошибку чтения из репозитория. Пост чужого
// арендатора неотличим от несуществующего.
func handleRepoError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, notFoundMsg string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, repo.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, ErrCodeNotFound, notFoundMsg)
		return true
	}
	internalError(w, r, logger, err)
	return true
}

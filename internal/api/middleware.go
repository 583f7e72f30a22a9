package api

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Relay/internal/telemetry"
)

// HeaderRequestID — заголовок с идентификатором запроса.
const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

// Middleware — функция-обёртка для http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain применяет middleware в порядке слева направо.
func Chain(middlewares ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// RequestID берёт X-Request-ID клиента или выдаёт новый и возвращает его в ответе.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			w.Header().Set(HeaderRequestID, id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		})
	}
}

// RequestIDFrom возвращает id запроса из контекста.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestLogger добавляет к логгеру id запроса и арендатора.
func requestLogger(r *http.Request, logger *slog.Logger) *slog.Logger {
	if id := RequestIDFrom(r.Context()); id != "" {
		logger = logger.With("request_id", id)
	}
	if tenant := r.URL.Query().Get("tenant_id"); tenant != "" {
		logger = logger.With("tenant_id", tenant)
	}
	return logger
}

// Logging логирует запросы и пишет relay_http_request_duration_seconds
// с шаблоном маршрута, чтобы id постов не раздували кардинальность.
func Logging(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			telemetry.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Observe(elapsed.Seconds())

			level := slog.LevelInfo
			if rec.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			requestLogger(r, logger).Log(r.Context(), level, "http request",
				"route", route,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", elapsed,
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}

// Recovery превращает панику обработчика в 500.
func Recovery(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					requestLogger(r, logger).Error("panic recovered",
						"panic", v,
						"stack", string(debug.Stack()),
						"path", r.URL.Path,
					)
					writeError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions — параметры логгера.
type LogOptions struct {
	// Level: DEBUG, INFO, WARN, ERROR. По умолчанию: INFO.
	Level string

	// Format: "json" (по умолчанию) или "text".
	Format string

	// File — путь к файлу логов. Если задан, логи пишутся и в stdout, и в файл с ротацией.
	File string
}

// ParseLevel преобразует строку в slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger инициализирует глобальный логгер.
func SetupLogger(opts LogOptions) *slog.Logger {
	level := ParseLevel(opts.Level)

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var w io.Writer = os.Stdout
	if opts.File != "" {
		w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    100, // MB
			MaxBackups: 5,
			MaxAge:     14, // дней
			Compress:   true,
		})
	}

	var handler slog.Handler
	if opts.Format == "text" {
		handler = slog.NewTextHandler(w, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// Ключи контекста для передачи данных в логгер.
type ctxKey string

const (
	// CtxLogger — ключ для логгера в контексте.
	CtxLogger ctxKey = "logger"
)

// WithLogger добавляет логгер в контекст.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, CtxLogger, logger)
}

// FromContext извлекает логгер из контекста.
// Если логгер не найден, возвращает глобальный.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(CtxLogger).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithPost возвращает логгер с добавленными post_id и tenant_id.
func WithPost(logger *slog.Logger, postID int64, tenantID string) *slog.Logger {
	return logger.With("post_id", postID, "tenant_id", tenantID)
}

// WithJob возвращает логгер с добавленным job_id.
func WithJob(logger *slog.Logger, jobID string) *slog.Logger {
	return logger.With("job_id", jobID)
}

// PostIDString форматирует ID поста для атрибутов трейсинга и ключей.
func PostIDString(postID int64) string {
	return strconv.FormatInt(postID, 10)
}

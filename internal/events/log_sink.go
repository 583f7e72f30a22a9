package events

import (
	"context"
	"log/slog"
)

// LogSink пишет события в slog.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink создаёт LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Emit логирует событие. Неуспешные исходы — с уровнем WARN.
func (s *LogSink) Emit(ctx context.Context, e Event) {
	attrs := []any{"event", e.Type}

	switch e.Type {
	case TypeScanCompleted:
		if e.Scan != nil {
			attrs = append(attrs,
				"posts_found", e.Scan.PostsFound,
				"posts_queued", e.Scan.PostsQueued,
				"posts_failed", e.Scan.PostsFailed,
				"manual", e.Scan.Manual,
			)
		}
		s.logger.InfoContext(ctx, "pipeline event", attrs...)
		return
	}

	attrs = append(attrs,
		"post_id", e.PostID,
		"tenant_id", e.TenantID,
		"status", e.Status,
		"attempt", e.Attempt,
		"retry_count", e.RetryCount,
	)
	if e.Reason != "" {
		attrs = append(attrs, "reason", e.Reason)
	}
	if e.Error != "" {
		attrs = append(attrs, "error", e.Error)
	}

	if e.Type == TypePostPublished {
		s.logger.InfoContext(ctx, "pipeline event", attrs...)
		return
	}
	s.logger.WarnContext(ctx, "pipeline event", attrs...)
}

package events

import (
	"context"
	"sync"
	"time"

	"github.com/shaiso/Relay/internal/domain"
)

// Type — тип события.
type Type string

const (
	TypePostPublished          Type = "post.published"
	TypePostPartiallyPublished Type = "post.partially_published"
	TypePostFailed             Type = "post.failed"
	TypePostRetrying           Type = "post.retrying"
	TypeJobDiscarded           Type = "job.discarded"
	TypeScanCompleted          Type = "scan.completed"
)

// Причины отбрасывания задачи (Event.Reason для job.discarded).
const (
	ReasonInvalidPayload = "invalid_payload"
	ReasonPostNotFound   = "post_not_found"
	ReasonStatusGuard    = "status_guard"
	ReasonConfigMissing  = "config_missing"
	ReasonWriteBack      = "write_back_failed"
)

// Event — событие pipeline.
type Event struct {
	Type     Type              `json:"type"`
	PostID   int64             `json:"post_id,omitempty"`
	TenantID string            `json:"tenant_id,omitempty"`
	Status   domain.PostStatus `json:"status,omitempty"`
	Error    string            `json:"error,omitempty"`
	Reason   string            `json:"reason,omitempty"`

	// Attempt — номер попытки задачи в очереди.
	Attempt    int `json:"attempt,omitempty"`
	RetryCount int `json:"retry_count,omitempty"`

	Platforms []domain.PlatformResult `json:"platforms,omitempty"`
	Scan      *domain.ScanResult      `json:"scan,omitempty"`

	At time.Time `json:"at"`
}

// TypeForStatus возвращает тип события для итогового статуса поста.
func TypeForStatus(s domain.PostStatus) Type {
	switch s {
	case domain.PostStatusPublished:
		return TypePostPublished
	case domain.PostStatusPartiallyPublished:
		return TypePostPartiallyPublished
	default:
		return TypePostFailed
	}
}

// Sink — получатель событий. Emit не возвращает ошибок.
type Sink interface {
	Emit(ctx context.Context, e Event)
}

// Nop — sink, который ничего не делает.
type Nop struct{}

// Emit ничего не делает.
func (Nop) Emit(context.Context, Event) {}

// Multi рассылает событие всем sink'ам по очереди.
type Multi []Sink

// Emit отправляет событие каждому sink'у.
func (m Multi) Emit(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	for _, s := range m {
		s.Emit(ctx, e)
	}
}

// Recorder запоминает события. Используется в тестах.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit сохраняет событие.
func (r *Recorder) Emit(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events возвращает копию сохранённых событий.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

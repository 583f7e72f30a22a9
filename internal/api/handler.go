package api

import (
	"context"
	"log/slog"

	"github.com/shaiso/Relay/internal/domain"
	"github.com/shaiso/Relay/internal/scanner"
)

// ScanTrigger ставит ручной цикл сканирования. Реализуется *scanner.Trigger.
type ScanTrigger interface {
	Trigger(ctx context.Context, batchSize int) (string, error)
}

// ScanStatus отдаёт состояние сканера. Реализуется *scanner.Scanner.
type ScanStatus interface {
	Status(ctx context.Context) (scanner.Status, error)
}

// PostReader читает посты. Реализуется *repo.PostRepo.
type PostReader interface {
	Get(ctx context.Context, id int64, tenantID string) (*domain.Post, error)
}

// HistoryReader читает историю публикаций. Реализуется *repo.HistoryRepo.
type HistoryReader interface {
	ListByPost(ctx context.Context, postID int64, tenantID string) ([]domain.HistoryEntry, error)
}

// Pinger — зависимость, проверяемая в /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	trigger ScanTrigger
	status  ScanStatus
	posts   PostReader
	history HistoryReader
	checks  map[string]Pinger
	logger  *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Trigger ScanTrigger
	Status  ScanStatus
	Posts   PostReader
	History HistoryReader

	// Checks — зависимости для /healthz по имени (database, redis, queue).
	Checks map[string]Pinger

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		trigger: cfg.Trigger,
		status:  cfg.Status,
		posts:   cfg.Posts,
		history: cfg.History,
		checks:  cfg.Checks,
		logger:  logger,
	}
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/shaiso/Relay/internal/domain"
	"github.com/shaiso/Relay/internal/events"
	"github.com/shaiso/Relay/internal/platform"
	"github.com/shaiso/Relay/internal/queue"
	"github.com/shaiso/Relay/internal/repo"
	"github.com/shaiso/Relay/internal/telemetry"
)

// PostStore — операции с постами, нужные воркеру. Реализуется *repo.PostRepo.
type PostStore interface {
	Get(ctx context.Context, id int64, tenantID string) (*domain.Post, error)
	TransitionStatus(ctx context.Context, id int64, from []domain.PostStatus, to domain.PostStatus) error
	SaveOutcome(ctx context.Context, post *domain.Post, history []domain.HistoryEntry) error
}

// ConfigStore — чтение настроек арендатора. Реализуется *repo.ConfigRepo.
type ConfigStore interface {
	Get(ctx context.Context, tenantID string) (*domain.PublishingConfig, error)
}

// Result — итог обработки одной задачи публикации.
type Result struct {
	PostID     int64
	TenantID   string
	Status     domain.PostStatus
	Results    []domain.PlatformResult
	Error      string
	RetryCount int

	// Retrying — задача будет повторена очередью.
	Retrying bool
}

// writeBackTimeout — таймаут записи итога. Запись не зависит от контекста
// задачи: истёкший JobTimeout или Stop не должны оставить пост в PUBLISHING.
const writeBackTimeout = 10 * time.Second

// Processor выполняет публикацию одного поста.
type Processor struct {
	posts   PostStore
	configs ConfigStore
	adapter platform.Adapter
	events  events.Sink
	logger  *slog.Logger
	now     func() time.Time
}

// ProcessorConfig — зависимости Processor.
type ProcessorConfig struct {
	Posts   PostStore
	Configs ConfigStore
	Adapter platform.Adapter

	// Events — получатель событий (default: events.Nop).
	Events events.Sink

	Logger *slog.Logger
}

// NewProcessor создаёт Processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	sink := cfg.Events
	if sink == nil {
		sink = events.Nop{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		posts:   cfg.Posts,
		configs: cfg.Configs,
		adapter: cfg.Adapter,
		events:  sink,
		logger:  logger,
		now:     time.Now,
	}
}

// Process публикует пост задачи.
//
// Ошибки, обёрнутые queue.Permanent, не повторяются. ErrTransient означает,
// что пост возвращён в исходный статус и задачу нужно повторить.
func (p *Processor) Process(ctx context.Context, job queue.PublishJob, attempt int) (Result, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "publish.process")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("post.id", job.PostID),
		attribute.String("tenant.id", job.TenantID),
		attribute.Int("job.attempt", attempt),
	)

	res, err := p.process(ctx, job, attempt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

func (p *Processor) process(ctx context.Context, job queue.PublishJob, attempt int) (Result, error) {
	log := telemetry.WithPost(p.logger, job.PostID, job.TenantID).With("attempt", attempt)
	res := Result{PostID: job.PostID, TenantID: job.TenantID}

	// 1. Пост
	post, err := p.posts.Get(ctx, job.PostID, job.TenantID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return res, p.discard(ctx, job, attempt, events.ReasonPostNotFound, ErrPostNotFound)
		}
		return res, fmt.Errorf("get post: %w", err)
	}
	res.Status = post.Status
	res.RetryCount = post.RetryCount

	// 2. Проверка статуса
	if !post.Status.CanPublish() {
		log.Info("post is not publishable, skipping", "status", post.Status)
		return res, p.discard(ctx, job, attempt, events.ReasonStatusGuard,
			fmt.Errorf("%w: %s", ErrNotPublishable, post.Status))
	}

	// 3. Настройки арендатора
	cfg, err := p.configs.Get(ctx, job.TenantID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return res, p.discard(ctx, job, attempt, events.ReasonConfigMissing, ErrConfigNotFound)
		}
		return res, fmt.Errorf("get publishing config: %w", err)
	}

	// 4. CAS: исходный статус → PUBLISHING
	prev := post.Status
	if err := p.posts.TransitionStatus(ctx, post.ID, []domain.PostStatus{prev}, domain.PostStatusPublishing); err != nil {
		if errors.Is(err, repo.ErrStatusConflict) {
			log.Info("post status changed concurrently, skipping", "expected", prev)
			return res, p.discard(ctx, job, attempt, events.ReasonStatusGuard,
				fmt.Errorf("%w: changed from %s", ErrNotPublishable, prev))
		}
		return res, fmt.Errorf("transition to publishing: %w", err)
	}
	post.Status = domain.PostStatusPublishing

	log.Info("publishing post", "platforms", post.TargetPlatforms)

	// 5. Один вызов адаптера
	results, adapterErr := p.adapter.Publish(ctx, post, cfg)
	now := p.now()

	// Дальше только запись итога и события: отмена задачи их не прерывает
	ctx = context.WithoutCancel(ctx)

	// 7. Транспортный сбой: повтор или FAILED
	if adapterErr != nil {
		return p.handleAdapterError(ctx, log, post, prev, adapterErr, attempt, now)
	}

	// 6. Агрегация и история
	post.ApplyResults(results, now)
	history := domain.HistoryFromResults(post, results, now)

	// 8. Единственная запись итога
	if err := p.saveOutcome(ctx, post, history); err != nil {
		return p.writeBackFailed(ctx, log, job, attempt, err)
	}

	res.Status = post.Status
	res.Results = results
	res.Error = post.Error
	res.RetryCount = post.RetryCount

	log.Info("post processed",
		"status", post.Status,
		"failed_platforms", domain.FailedPlatforms(results),
	)

	p.events.Emit(ctx, events.Event{
		Type:       events.TypeForStatus(post.Status),
		PostID:     post.ID,
		TenantID:   post.TenantID,
		Status:     post.Status,
		Error:      post.Error,
		Attempt:    attempt,
		RetryCount: post.RetryCount,
		Platforms:  results,
		At:         now,
	})

	return res, nil
}

// handleAdapterError применяет политику повторов после транспортного сбоя.
func (p *Processor) handleAdapterError(ctx context.Context, log *slog.Logger, post *domain.Post, prev domain.PostStatus, adapterErr error, attempt int, now time.Time) (Result, error) {
	res := Result{PostID: post.ID, TenantID: post.TenantID}

	if post.CanRetry() {
		post.ScheduleRetry(prev, adapterErr.Error(), now)
		if err := p.saveOutcome(ctx, post, nil); err != nil {
			return p.writeBackFailed(ctx, log, queue.PublishJob{PostID: post.ID, TenantID: post.TenantID}, attempt, err)
		}

		log.Warn("adapter failed, retry scheduled",
			"retry_count", post.RetryCount,
			"max_retries", post.MaxRetries,
			"error", adapterErr,
		)

		p.events.Emit(ctx, events.Event{
			Type:       events.TypePostRetrying,
			PostID:     post.ID,
			TenantID:   post.TenantID,
			Status:     post.Status,
			Error:      adapterErr.Error(),
			Attempt:    attempt,
			RetryCount: post.RetryCount,
			At:         now,
		})

		res.Status = post.Status
		res.Error = adapterErr.Error()
		res.RetryCount = post.RetryCount
		res.Retrying = true
		return res, fmt.Errorf("%w: %v", ErrTransient, adapterErr)
	}

	post.MarkFailed(adapterErr.Error(), now)
	if err := p.saveOutcome(ctx, post, nil); err != nil {
		return p.writeBackFailed(ctx, log, queue.PublishJob{PostID: post.ID, TenantID: post.TenantID}, attempt, err)
	}

	log.Error("adapter failed, retries exhausted",
		"retry_count", post.RetryCount,
		"max_retries", post.MaxRetries,
		"error", adapterErr,
	)

	p.events.Emit(ctx, events.Event{
		Type:       events.TypePostFailed,
		PostID:     post.ID,
		TenantID:   post.TenantID,
		Status:     post.Status,
		Error:      post.Error,
		Attempt:    attempt,
		RetryCount: post.RetryCount,
		At:         now,
	})

	res.Status = post.Status
	res.Error = post.Error
	res.RetryCount = post.RetryCount
	return res, nil
}

// saveOutcome записывает итог с собственным таймаутом.
func (p *Processor) saveOutcome(ctx context.Context, post *domain.Post, history []domain.HistoryEntry) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeBackTimeout)
	defer cancel()
	return p.posts.SaveOutcome(ctx, post, history)
}

// writeBackFailed — итог не записан, пост остался в PUBLISHING.
// Повтор задачи бесполезен: проверка статуса её отбросит.
func (p *Processor) writeBackFailed(ctx context.Context, log *slog.Logger, job queue.PublishJob, attempt int, err error) (Result, error) {
	log.Error("failed to save post outcome, post left in PUBLISHING", "error", err)
	res := Result{PostID: job.PostID, TenantID: job.TenantID, Status: domain.PostStatusPublishing}
	return res, p.discard(ctx, job, attempt, events.ReasonWriteBack, fmt.Errorf("%w: %v", ErrWriteBack, err))
}

// discard отправляет событие job.discarded и возвращает permanent ошибку.
func (p *Processor) discard(ctx context.Context, job queue.PublishJob, attempt int, reason string, err error) error {
	p.events.Emit(ctx, events.Event{
		Type:     events.TypeJobDiscarded,
		PostID:   job.PostID,
		TenantID: job.TenantID,
		Reason:   reason,
		Error:    err.Error(),
		Attempt:  attempt,
		At:       p.now(),
	})
	return queue.Permanent(err)
}

package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/shaiso/Relay/internal/domain"
	"github.com/shaiso/Relay/internal/events"
	"github.com/shaiso/Relay/internal/queue"
	"github.com/shaiso/Relay/internal/telemetry"
)

// LockKey — единая блокировка цикла сканирования для всех арендаторов.
const LockKey = "relay:lock:scheduled-posts"

// Default configuration values.
const (
	DefaultBatchSize    = 50
	MaxBatchSize        = 500
	DefaultLockTTL      = 60 * time.Second
	DefaultBackoffDelay = 30 * time.Second
)

// Locker — распределённая блокировка. Реализуется *lock.RedisLock.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
	Holder(ctx context.Context, key string) (domain.LockState, error)
}

// DueLister — выборка постов к публикации. Реализуется *repo.PostRepo.
type DueLister interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Post, error)
}

// ResultStore хранит результат последнего цикла.
type ResultStore interface {
	SaveLast(ctx context.Context, result domain.ScanResult) error
	Last(ctx context.Context) (*domain.ScanResult, error)
}

// Scanner выполняет цикл сканирования запланированных постов.
type Scanner struct {
	lock     Locker
	posts    DueLister
	producer queue.Producer
	results  ResultStore
	events   events.Sink
	logger   *slog.Logger

	lockTTL      time.Duration
	batchSize    int
	backoffDelay time.Duration

	now func() time.Time
}

// Config — конфигурация Scanner.
type Config struct {
	Lock     Locker
	Posts    DueLister
	Producer queue.Producer

	// Results — хранилище последнего результата (опционально).
	Results ResultStore

	Events events.Sink
	Logger *slog.Logger

	// LockTTL — TTL блокировки, с запасом больше длительности цикла (default: 60s).
	LockTTL time.Duration

	// BatchSize — размер выборки, если задача его не указала (default: 50, max: 500).
	BatchSize int

	// BackoffDelay — базовая задержка повторов задач publish (default: 30s).
	BackoffDelay time.Duration
}

// New создаёт Scanner.
func New(cfg Config) *Scanner {
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}

	backoff := cfg.BackoffDelay
	if backoff <= 0 {
		backoff = DefaultBackoffDelay
	}

	sink := cfg.Events
	if sink == nil {
		sink = events.Nop{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scanner{
		lock:         cfg.Lock,
		posts:        cfg.Posts,
		producer:     cfg.Producer,
		results:      cfg.Results,
		events:       sink,
		logger:       logger,
		lockTTL:      lockTTL,
		batchSize:    ClampBatchSize(cfg.BatchSize, DefaultBatchSize),
		backoffDelay: backoff,
		now:          time.Now,
	}
}

// ClampBatchSize приводит batchSize к диапазону [1, MaxBatchSize];
// неположительное значение заменяется на def.
func ClampBatchSize(n, def int) int {
	if n <= 0 {
		n = def
	}
	if n <= 0 {
		n = DefaultBatchSize
	}
	return min(n, MaxBatchSize)
}

// Scan выполняет один цикл сканирования.
//
// Занятая блокировка — не ошибка: возвращается пустой результат со Skipped=true.
// Ошибка выборки возвращается после освобождения блокировки.
func (s *Scanner) Scan(ctx context.Context, job queue.ScanJob) (domain.ScanResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "scan.run")
	defer span.End()

	result, err := s.scan(ctx, job)

	span.SetAttributes(
		attribute.Bool("scan.manual", job.Manual),
		attribute.Bool("scan.skipped", result.Skipped),
		attribute.Int("scan.posts_found", result.PostsFound),
		attribute.Int("scan.posts_queued", result.PostsQueued),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func (s *Scanner) scan(ctx context.Context, job queue.ScanJob) (domain.ScanResult, error) {
	batchSize := ClampBatchSize(job.BatchSize, s.batchSize)
	log := s.logger.With("manual", job.Manual, "batch_size", batchSize)

	result := domain.EmptyScanResult()
	result.Manual = job.Manual
	result.StartedAt = s.now()

	// 1. Блокировка
	acquired, err := s.lock.Acquire(ctx, LockKey, s.lockTTL)
	if err != nil {
		return result, fmt.Errorf("acquire scan lock: %w", err)
	}
	if !acquired {
		log.Info("scan skipped, lock held by another instance")
		result.Skipped = true
		result.FinishedAt = s.now()
		s.emit(ctx, result, "")
		return result, nil
	}

	// 5. Освобождение при любом исходе
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), LockKey); err != nil {
			log.Error("failed to release scan lock", "error", err)
		}
	}()

	// 2. Выборка due постов
	posts, err := s.posts.ListDue(ctx, result.StartedAt, batchSize)
	if err != nil {
		result.FinishedAt = s.now()
		log.Error("scan query failed", "error", err)
		s.emit(ctx, result, err.Error())
		return result, fmt.Errorf("list due posts: %w", err)
	}
	result.PostsFound = len(posts)

	// 3-4. Постановка задач
	for i := range posts {
		post := &posts[i]
		s.enqueue(ctx, log, post, &result)
	}

	result.FinishedAt = s.now()

	log.Info("scan completed",
		"posts_found", result.PostsFound,
		"posts_queued", result.PostsQueued,
		"posts_failed", result.PostsFailed,
		"duration", result.FinishedAt.Sub(result.StartedAt),
	)

	if s.results != nil {
		if err := s.results.SaveLast(ctx, result); err != nil {
			log.Warn("failed to store last scan result", "error", err)
		}
	}
	s.emit(ctx, result, "")

	return result, nil
}

// enqueue ставит задачу publish для поста и обновляет счётчики результата.
func (s *Scanner) enqueue(ctx context.Context, log *slog.Logger, post *domain.Post, result *domain.ScanResult) {
	added, err := s.producer.Add(ctx, queue.QueuePublish, queue.JobPublishPost,
		queue.PublishJob{PostID: post.ID, TenantID: post.TenantID},
		queue.AddOptions{
			JobID:    queue.PublishJobID(post.ID),
			Attempts: post.MaxRetries + 1,
			Backoff:  queue.Backoff{Type: queue.BackoffExponential, Delay: s.backoffDelay},
		},
	)
	if err != nil {
		result.PostsFailed++
		log.Error("failed to enqueue post",
			"post_id", post.ID,
			"tenant_id", post.TenantID,
			"error", err,
		)
		return
	}

	// Дубликат принят очередью как уже ожидающая задача
	if !added {
		log.Debug("publish job already pending", "post_id", post.ID)
	}

	result.PostsQueued++
	result.QueuedPostIDs = append(result.QueuedPostIDs, post.ID)
}

func (s *Scanner) emit(ctx context.Context, result domain.ScanResult, errText string) {
	r := result
	s.events.Emit(ctx, events.Event{
		Type:  events.TypeScanCompleted,
		Scan:  &r,
		Error: errText,
		At:    result.FinishedAt,
	})
}

// HandleJob — обработчик задачи очереди scan.
func (s *Scanner) HandleJob(ctx context.Context, job *queue.Job) error {
	payload, err := queue.Decode[queue.ScanJob](job)
	if err != nil {
		return queue.Permanent(err)
	}
	_, err = s.Scan(ctx, payload)
	return err
}

// Status — состояние сканера для операторов.
type Status struct {
	Lock     domain.LockState   `json:"lock"`
	LastScan *domain.ScanResult `json:"last_scan"`
}

// Status возвращает владельца блокировки и последний результат. Без побочных эффектов.
func (s *Scanner) Status(ctx context.Context) (Status, error) {
	state, err := s.lock.Holder(ctx, LockKey)
	if err != nil {
		return Status{}, fmt.Errorf("lock holder: %w", err)
	}

	st := Status{Lock: state}
	if s.results != nil {
		last, err := s.results.Last(ctx)
		if err != nil {
			return Status{}, fmt.Errorf("last scan result: %w", err)
		}
		st.LastScan = last
	}
	return st, nil
}

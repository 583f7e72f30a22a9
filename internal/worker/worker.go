package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Relay/internal/events"
	"github.com/shaiso/Relay/internal/queue"
)

// Default configuration values.
const (
	defaultConcurrency = 5
	defaultJobTimeout  = 2 * time.Minute
)

// Worker потребляет очередь publish и передаёт задачи Processor'у.
type Worker struct {
	processor *Processor
	consumer  queue.Consumer
	events    events.Sink

	concurrency int
	limiter     queue.Limiter
	jobTimeout  time.Duration

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Worker.
type Config struct {
	Processor *Processor
	Consumer  queue.Consumer

	// Events — получатель событий об отброшенных задачах (default: events.Nop).
	Events events.Sink

	// Concurrency — максимум одновременных публикаций (default: 5).
	Concurrency int

	// Limiter — ограничение частоты вызовов провайдеров.
	Limiter queue.Limiter

	// JobTimeout — таймаут одной задачи (default: 2m).
	JobTimeout time.Duration

	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = defaultJobTimeout
	}

	sink := cfg.Events
	if sink == nil {
		sink = events.Nop{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		processor:   cfg.Processor,
		consumer:    cfg.Consumer,
		events:      sink,
		concurrency: concurrency,
		limiter:     cfg.Limiter,
		jobTimeout:  jobTimeout,
		logger:      logger,
	}
}

// Start запускает потребление очереди publish.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"concurrency", w.concurrency,
		"limiter_max", w.limiter.Max,
		"limiter_duration", w.limiter.Duration,
		"job_timeout", w.jobTimeout,
	)

	opts := queue.ConsumerOptions{
		Concurrency: w.concurrency,
		Limiter:     w.limiter,
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Consume(ctx, queue.QueuePublish, opts, w.HandleJob); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("publish consumer error", "error", err)
		}
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker и ждёт завершения текущих задач.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// HandleJob — обработчик задачи очереди publish.
func (w *Worker) HandleJob(ctx context.Context, job *queue.Job) error {
	ctx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	payload, err := queue.Decode[queue.PublishJob](job)
	if err != nil {
		w.events.Emit(ctx, events.Event{
			Type:    events.TypeJobDiscarded,
			Reason:  events.ReasonInvalidPayload,
			Error:   err.Error(),
			Attempt: job.Attempt,
		})
		return queue.Permanent(errors.Join(ErrInvalidPayload, err))
	}

	_, err = w.processor.Process(ctx, payload, job.Attempt)
	return err
}

package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/shaiso/Relay/internal/telemetry"
)

// outcome — что делать с задачей после обработчика.
type outcome int

const (
	outcomeComplete outcome = iota
	outcomeRetry
	outcomeDeadLetter
)

func (o outcome) String() string {
	switch o {
	case outcomeComplete:
		return "complete"
	case outcomeRetry:
		return "retry"
	default:
		return "dead_letter"
	}
}

// resolve определяет исход по ошибке обработчика и номеру попытки.
func resolve(job *Job, err error) outcome {
	switch {
	case err == nil:
		return outcomeComplete
	case IsPermanent(err):
		return outcomeDeadLetter
	case job.Attempt < job.MaxAttempts:
		return outcomeRetry
	default:
		return outcomeDeadLetter
	}
}

// newLimiter создаёт token bucket: Max задач за Duration, burst = Max.
func newLimiter(l Limiter) *rate.Limiter {
	if l.Max <= 0 || l.Duration <= 0 {
		return nil
	}
	every := rate.Limit(float64(l.Max) / l.Duration.Seconds())
	return rate.NewLimiter(every, l.Max)
}

// pool ограничивает число параллельных обработчиков и частоту их запуска.
type pool struct {
	sem     chan struct{}
	limiter *rate.Limiter
	wg      sync.WaitGroup
}

func newPool(opts ConsumerOptions) *pool {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &pool{
		sem:     make(chan struct{}, concurrency),
		limiter: newLimiter(opts.Limiter),
	}
}

// acquire ждёт токен лимитера и свободный слот.
func (p *pool) acquire(ctx context.Context) error {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// spawn запускает fn в занятом слоте.
func (p *pool) spawn(fn func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() { <-p.sem }()
		fn()
	}()
}

// wait ждёт завершения всех обработчиков.
func (p *pool) wait() {
	p.wg.Wait()
}

// runHandler выполняет обработчик, превращая panic в ошибку.
func runHandler(ctx context.Context, logger *slog.Logger, job *Job, h Handler) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("job handler panic",
				"queue", job.Queue,
				"job_id", job.ID,
				"panic", r,
			)
			err = fmt.Errorf("handler panic: %v", r)
		}
		telemetry.JobDuration.WithLabelValues(job.Queue).Observe(time.Since(start).Seconds())
	}()

	return h(ctx, job)
}

// logOutcome пишет в лог итог обработки задачи.
func logOutcome(logger *slog.Logger, job *Job, o outcome, err error) {
	log := telemetry.WithJob(logger, job.ID).With(
		"queue", job.Queue,
		"name", job.Name,
		"attempt", job.Attempt,
		"max_attempts", job.MaxAttempts,
	)

	switch o {
	case outcomeComplete:
		log.Debug("job completed")
	case outcomeRetry:
		log.Warn("job failed, retrying", "delay", job.Backoff.Next(job.Attempt), "error", err)
	default:
		log.Error("job dead-lettered", "permanent", IsPermanent(err), "error", err)
	}
}

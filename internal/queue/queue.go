package queue

import (
	"context"
	"time"
)

// Handler обрабатывает одну задачу.
type Handler func(ctx context.Context, job *Job) error

// Limiter — ограничение частоты: не более Max задач за Duration.
type Limiter struct {
	Max      int
	Duration time.Duration
}

// ConsumerOptions — параметры потребления очереди.
type ConsumerOptions struct {
	// Concurrency — максимум одновременно выполняемых задач (default: 1).
	Concurrency int

	// Limiter — ограничение частоты; нулевой Max — без ограничения.
	Limiter Limiter
}

// Producer ставит задачи в очередь.
type Producer interface {
	// Add ставит задачу. added=false, err=nil — задача с таким JobID уже ожидает выполнения.
	Add(ctx context.Context, queue, name string, payload any, opts AddOptions) (added bool, err error)
}

// Consumer потребляет задачи. Consume блокируется до отмены ctx.
type Consumer interface {
	Consume(ctx context.Context, queue string, opts ConsumerOptions, h Handler) error
}

// Queue — очередь целиком.
type Queue interface {
	Producer
	Consumer
	Close() error
}

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memQueue — очередь готовых задач одного имени.
type memQueue struct {
	mu     sync.Mutex
	ready  []*Job
	dead   []*Job
	notify chan struct{}
}

func newMemQueue() *memQueue {
	return &memQueue{notify: make(chan struct{}, 1)}
}

func (q *memQueue) push(job *Job) {
	q.mu.Lock()
	q.ready = append(q.ready, job)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *memQueue) pop() *Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.ready) == 0 {
		return nil
	}
	job := q.ready[0]
	q.ready = q.ready[1:]
	return job
}

// Memory — in-memory очередь с той же семантикой, что и RabbitMQ:
// дедупликация по job id, отложенные задачи, попытки с backoff,
// concurrency и rate limiter.
//
// Задачи не переживают рестарт процесса.
type Memory struct {
	logger *slog.Logger

	mu      sync.Mutex
	queues  map[string]*memQueue
	pending map[string]struct{}
	timers  map[*time.Timer]struct{}
	closed  bool
}

// NewMemory создаёт in-memory очередь.
func NewMemory(logger *slog.Logger) *Memory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Memory{
		logger:  logger,
		queues:  make(map[string]*memQueue),
		pending: make(map[string]struct{}),
		timers:  make(map[*time.Timer]struct{}),
	}
}

func (m *Memory) queue(name string) *memQueue {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.queues[name]
	if !ok {
		q = newMemQueue()
		m.queues[name] = q
	}
	return q
}

func pendingKey(queue, id string) string {
	return queue + "/" + id
}

// Add ставит задачу в очередь.
func (m *Memory) Add(_ context.Context, queue, name string, payload any, opts AddOptions) (bool, error) {
	if queue == "" {
		return false, ErrEmptyQueueName
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("marshal payload: %w", err)
	}

	id := opts.JobID
	if id == "" {
		id = uuid.New().String()
	}

	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false, ErrClosed
	}
	key := pendingKey(queue, id)
	if _, dup := m.pending[key]; dup {
		m.mu.Unlock()
		m.logger.Debug("duplicate job ignored", "queue", queue, "job_id", id)
		return false, nil
	}
	m.pending[key] = struct{}{}
	m.mu.Unlock()

	job := &Job{
		ID:          id,
		Queue:       queue,
		Name:        name,
		Payload:     body,
		Attempt:     1,
		MaxAttempts: attempts,
		Backoff:     opts.Backoff,
		EnqueuedAt:  time.Now(),
	}
	m.schedule(job, opts.Delay)

	return true, nil
}

// schedule кладёт задачу в очередь сразу или по таймеру.
func (m *Memory) schedule(job *Job, delay time.Duration) {
	q := m.queue(job.Queue)
	if delay <= 0 {
		q.push(job)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		delete(m.timers, timer)
		m.mu.Unlock()
		q.push(job)
	})
	m.timers[timer] = struct{}{}
}

// forget снимает job id с учёта.
func (m *Memory) forget(job *Job) {
	m.mu.Lock()
	delete(m.pending, pendingKey(job.Queue, job.ID))
	m.mu.Unlock()
}

// Consume обрабатывает задачи очереди до отмены ctx.
func (m *Memory) Consume(ctx context.Context, queue string, opts ConsumerOptions, h Handler) error {
	if queue == "" {
		return ErrEmptyQueueName
	}

	q := m.queue(queue)
	p := newPool(opts)
	defer p.wait()

	m.logger.Info("consumer started", "queue", queue, "driver", "memory")

	for {
		job := q.pop()
		if job == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-q.notify:
				continue
			}
		}

		if err := p.acquire(ctx); err != nil {
			// Задача не начата — вернём её в очередь
			q.push(job)
			return err
		}

		p.spawn(func() {
			m.handle(ctx, q, job, h)
		})
	}
}

// handle выполняет задачу и применяет исход.
func (m *Memory) handle(ctx context.Context, q *memQueue, job *Job, h Handler) {
	err := runHandler(ctx, m.logger, job, h)
	o := resolve(job, err)
	logOutcome(m.logger, job, o, err)

	switch o {
	case outcomeComplete:
		m.forget(job)
	case outcomeRetry:
		m.schedule(job.next(), job.Backoff.Next(job.Attempt))
	default:
		m.forget(job)
		q.mu.Lock()
		q.dead = append(q.dead, job)
		q.mu.Unlock()
	}
}

// Jobs возвращает копию готовых к выполнению задач очереди.
func (m *Memory) Jobs(queue string) []Job {
	q := m.queue(queue)
	q.mu.Lock()
	defer q.mu.Unlock()

	jobs := make([]Job, 0, len(q.ready))
	for _, j := range q.ready {
		jobs = append(jobs, *j)
	}
	return jobs
}

// DeadLetters возвращает копию отброшенных задач очереди.
func (m *Memory) DeadLetters(queue string) []Job {
	q := m.queue(queue)
	q.mu.Lock()
	defer q.mu.Unlock()

	jobs := make([]Job, 0, len(q.dead))
	for _, j := range q.dead {
		jobs = append(jobs, *j)
	}
	return jobs
}

// Pending возвращает число незавершённых задач (включая отложенные).
func (m *Memory) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Close останавливает таймеры отложенных задач.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	for t := range m.timers {
		t.Stop()
	}
	m.timers = nil
	return nil
}

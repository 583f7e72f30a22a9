package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQ — очередь задач поверх RabbitMQ.
//
// Задачи без задержки публикуются в relay.<queue>, отложенные — в
// relay.<queue>.delay.<ms>: своя очередь на каждый уровень задержки с TTL
// на уровне очереди. Дедупликация по job id — в Dedup.
type RabbitMQ struct {
	conn   *Connection
	dedup  Dedup
	logger *slog.Logger

	mu       sync.Mutex
	declared map[string]bool
}

// RabbitMQConfig — конфигурация RabbitMQ очереди.
type RabbitMQConfig struct {
	Conn *Connection

	// Dedup — реестр job id (обязателен для дедупликации между процессами).
	Dedup Dedup

	Logger *slog.Logger
}

// NewRabbitMQ создаёт очередь.
func NewRabbitMQ(cfg RabbitMQConfig) *RabbitMQ {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RabbitMQ{
		conn:     cfg.Conn,
		dedup:    cfg.Dedup,
		logger:   logger,
		declared: make(map[string]bool),
	}
}

// ensureQueue объявляет топологию очереди один раз на процесс.
func (r *RabbitMQ) ensureQueue(queue string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.declared[queue] {
		return nil
	}

	err := r.conn.WithChannel(func(ch *amqp.Channel) error {
		return declareQueue(ch, queue)
	})
	if err != nil {
		return err
	}

	r.declared[queue] = true
	return nil
}

// ensureDelayQueue объявляет очередь задержки уровня delay один раз на процесс.
func (r *RabbitMQ) ensureDelayQueue(queue string, delay time.Duration) error {
	name := DelayQueue(queue, delay)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.declared[name] {
		return nil
	}

	err := r.conn.WithChannel(func(ch *amqp.Channel) error {
		return declareDelayQueue(ch, queue, delay)
	})
	if err != nil {
		return err
	}

	r.declared[name] = true
	return nil
}

// resetTopology сбрасывает кэш объявленных очередей после reconnect.
func (r *RabbitMQ) resetTopology() {
	r.mu.Lock()
	r.declared = make(map[string]bool)
	r.mu.Unlock()
}

// Add ставит задачу в очередь.
func (r *RabbitMQ) Add(ctx context.Context, queue, name string, payload any, opts AddOptions) (bool, error) {
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

	if err := r.ensureQueue(queue); err != nil {
		return false, err
	}

	if r.dedup != nil {
		ok, err := r.dedup.Reserve(ctx, queue, id)
		if err != nil {
			return false, err
		}
		if !ok {
			r.logger.Debug("duplicate job ignored", "queue", queue, "job_id", id)
			return false, nil
		}
	}

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

	if err := r.publish(ctx, job, opts.Delay); err != nil {
		// Задача не попала в очередь — освобождаем id для следующего Add
		if r.dedup != nil {
			if ferr := r.dedup.Forget(ctx, queue, id); ferr != nil {
				r.logger.Warn("failed to forget job after publish error", "job_id", id, "error", ferr)
			}
		}
		return false, err
	}

	return true, nil
}

// publish отправляет задачу в основную очередь или в очередь задержки.
func (r *RabbitMQ) publish(ctx context.Context, job *Job, delay time.Duration) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Type:         job.Name,
		Timestamp:    job.EnqueuedAt,
		Body:         body,
	}

	exchange, routingKey := ExchangeJobs, job.Queue
	if delay > 0 {
		if err := r.ensureDelayQueue(job.Queue, delay); err != nil {
			return err
		}
		exchange, routingKey = "", DelayQueue(job.Queue, delay)
	}

	return r.conn.WithChannel(func(ch *amqp.Channel) error {
		if err := ch.PublishWithContext(ctx, exchange, routingKey, false, false, msg); err != nil {
			return fmt.Errorf("publish job %s to %s: %w", job.ID, job.Queue, err)
		}

		r.logger.Debug("job published",
			"queue", job.Queue,
			"job_id", job.ID,
			"attempt", job.Attempt,
			"delay", delay,
		)
		return nil
	})
}

// Consume потребляет задачи до отмены ctx, переподключаясь при разрыве.
func (r *RabbitMQ) Consume(ctx context.Context, queue string, opts ConsumerOptions, h Handler) error {
	if queue == "" {
		return ErrEmptyQueueName
	}

	p := newPool(opts)
	defer p.wait()

	reconnected := r.conn.ReconnectNotify()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		deliveries, err := r.setupConsume(queue, cap(p.sem))
		if err != nil {
			r.logger.Error("failed to setup consume", "queue", queue, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-reconnected:
				r.resetTopology()
				continue
			}
		}

		r.logger.Info("consumer started", "queue", queue, "driver", "rabbitmq")

		if err := r.processDeliveries(ctx, p, deliveries, h); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Warn("deliveries channel closed, waiting for reconnect", "queue", queue)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-reconnected:
				r.resetTopology()
			}
		}
	}
}

// setupConsume объявляет очередь и подписывается на неё.
func (r *RabbitMQ) setupConsume(queue string, prefetch int) (<-chan amqp.Delivery, error) {
	if err := r.ensureQueue(queue); err != nil {
		return nil, err
	}

	ch := r.conn.Channel()
	if ch == nil {
		return nil, ErrNoChannel
	}

	if err := ch.Qos(prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		MainQueue(queue), // queue
		"",               // consumer tag (auto-generated)
		false,            // auto-ack
		false,            // exclusive
		false,            // no-local
		false,            // no-wait
		nil,              // args
	)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}

	return deliveries, nil
}

// processDeliveries раздаёт сообщения пулу обработчиков.
func (r *RabbitMQ) processDeliveries(ctx context.Context, p *pool, deliveries <-chan amqp.Delivery, h Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}

			if err := p.acquire(ctx); err != nil {
				// Не начатая задача вернётся в очередь
				raw.Nack(false, true)
				return err
			}

			p.spawn(func() {
				r.handleDelivery(ctx, raw, h)
			})
		}
	}
}

// handleDelivery выполняет одну задачу и подтверждает сообщение.
func (r *RabbitMQ) handleDelivery(ctx context.Context, raw amqp.Delivery, h Handler) {
	var job Job
	if err := json.Unmarshal(raw.Body, &job); err != nil {
		r.logger.Error("failed to unmarshal job",
			"message_id", raw.MessageId,
			"error", err,
			"body", string(raw.Body),
		)
		raw.Nack(false, false)
		return
	}

	err := runHandler(ctx, r.logger, &job, h)
	o := resolve(&job, err)
	logOutcome(r.logger, &job, o, err)

	switch o {
	case outcomeComplete:
		r.forget(job.Queue, job.ID)
		raw.Ack(false)

	case outcomeRetry:
		next := job.next()
		if perr := r.publish(context.WithoutCancel(ctx), next, job.Backoff.Next(job.Attempt)); perr != nil {
			r.logger.Error("failed to schedule retry, requeueing", "job_id", job.ID, "error", perr)
			raw.Nack(false, true)
			return
		}
		raw.Ack(false)

	default:
		r.forget(job.Queue, job.ID)
		raw.Nack(false, false)
	}
}

func (r *RabbitMQ) forget(queue, id string) {
	if r.dedup == nil {
		return
	}
	if err := r.dedup.Forget(context.Background(), queue, id); err != nil {
		r.logger.Warn("failed to forget job", "queue", queue, "job_id", id, "error", err)
	}
}

// Close закрывает соединение.
func (r *RabbitMQ) Close() error {
	return r.conn.Close()
}

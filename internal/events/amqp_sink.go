package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Relay/internal/queue"
)

// ExchangeEvents — topic exchange событий, routing key = тип события.
const ExchangeEvents = "relay.events"

// AMQPSink публикует события в RabbitMQ.
type AMQPSink struct {
	conn   *queue.Connection
	logger *slog.Logger

	// Exchange объявляется заново после ошибки и после reconnect
	mu          sync.Mutex
	declared    bool
	reconnected <-chan struct{}
	declareFn   func() error
}

// NewAMQPSink создаёт AMQPSink поверх соединения очереди.
func NewAMQPSink(conn *queue.Connection, logger *slog.Logger) *AMQPSink {
	if logger == nil {
		logger = slog.Default()
	}
	s := &AMQPSink{
		conn:        conn,
		logger:      logger,
		reconnected: conn.ReconnectNotify(),
	}
	s.declareFn = s.declareExchange
	return s
}

func (s *AMQPSink) declareExchange() error {
	return s.conn.WithChannel(func(ch *amqp.Channel) error {
		return ch.ExchangeDeclare(ExchangeEvents, "topic", true, false, false, false, nil)
	})
}

// declare объявляет exchange, запоминая только успех.
func (s *AMQPSink) declare() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.reconnected:
		s.declared = false
	default:
	}

	if s.declared {
		return nil
	}
	if err := s.declareFn(); err != nil {
		return err
	}
	s.declared = true
	return nil
}

// Emit публикует событие; ошибки только логируются.
func (s *AMQPSink) Emit(ctx context.Context, e Event) {
	if err := s.declare(); err != nil {
		s.logger.Warn("events exchange unavailable", "error", err)
		return
	}

	body, err := json.Marshal(e)
	if err != nil {
		s.logger.Warn("failed to marshal event", "event", e.Type, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err = s.conn.WithChannel(func(ch *amqp.Channel) error {
		return ch.PublishWithContext(ctx, ExchangeEvents, string(e.Type), false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    e.At,
			Type:         string(e.Type),
			Body:         body,
		})
	})
	if err != nil {
		s.logger.Warn("failed to publish event", "event", e.Type, "post_id", e.PostID, "error", err)
	}
}

package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter — запись в Kafka. Реализуется *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig — конфигурация KafkaSink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaSink пишет события в topic Kafka; ключ — ID поста,
// чтобы события одного поста шли в одну партицию.
type KafkaSink struct {
	writer MessageWriter
	logger *slog.Logger
}

// NewKafkaWriter создаёт writer с hash-балансировкой по ключу.
func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
}

// NewKafkaSink создаёт KafkaSink.
func NewKafkaSink(writer MessageWriter, logger *slog.Logger) *KafkaSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaSink{writer: writer, logger: logger}
}

// Emit пишет событие; ошибки только логируются.
func (s *KafkaSink) Emit(ctx context.Context, e Event) {
	value, err := json.Marshal(e)
	if err != nil {
		s.logger.Warn("failed to marshal event", "event", e.Type, "error", err)
		return
	}

	key := string(e.Type)
	if e.PostID != 0 {
		key = strconv.FormatInt(e.PostID, 10)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		s.logger.Warn("failed to write event to kafka", "event", e.Type, "post_id", e.PostID, "error", err)
	}
}

// Close закрывает writer.
func (s *KafkaSink) Close() error {
	if s == nil || s.writer == nil {
		return nil
	}
	return s.writer.Close()
}

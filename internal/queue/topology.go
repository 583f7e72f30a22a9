package queue

import (
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchanges.
const (
	ExchangeJobs = "relay.jobs"
	ExchangeDLX  = "relay.dlx"
)

// MainQueue — имя основной очереди.
func MainQueue(queue string) string { return "relay." + queue }

// DelayQueue — имя очереди задержки для уровня delayTier(delay).
// Все сообщения очереди имеют одинаковый TTL, поэтому истекают в порядке публикации.
func DelayQueue(queue string, delay time.Duration) string {
	return "relay." + queue + ".delay." + strconv.FormatInt(delayTier(delay).Milliseconds(), 10)
}

// delayTier округляет задержку вверх до целой секунды, ограничивая число очередей задержки.
func delayTier(delay time.Duration) time.Duration {
	if delay <= 0 {
		return 0
	}
	return ((delay + time.Second - 1) / time.Second) * time.Second
}

// delayQueueArgs — TTL уровня и возврат истёкших сообщений в relay.jobs.
func delayQueueArgs(queue string, delay time.Duration) amqp.Table {
	return amqp.Table{
		"x-message-ttl":             delayTier(delay).Milliseconds(),
		"x-dead-letter-exchange":    ExchangeJobs,
		"x-dead-letter-routing-key": queue,
	}
}

// DeadLetterQueue — имя DLQ.
func DeadLetterQueue(queue string) string { return "dlq." + queue }

// declareExchanges создаёт обменники задач и DLX.
func declareExchanges(ch *amqp.Channel) error {
	for _, name := range []string{ExchangeJobs, ExchangeDLX} {
		err := ch.ExchangeDeclare(
			name,     // name
			"direct", // type
			true,     // durable
			false,    // auto-deleted
			false,    // internal
			false,    // no-wait
			nil,      // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", name, err)
		}
	}
	return nil
}

// declareQueue создаёт основную очередь и DLQ для queue.
func declareQueue(ch *amqp.Channel, queue string) error {
	if err := declareExchanges(ch); err != nil {
		return err
	}

	queues := []struct {
		name string
		args amqp.Table
	}{
		// Основная: nack без requeue → DLQ
		{MainQueue(queue), amqp.Table{
			"x-dead-letter-exchange":    ExchangeDLX,
			"x-dead-letter-routing-key": queue,
		}},

		{DeadLetterQueue(queue), nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			q.name, // name
			true,   // durable
			false,  // delete when unused
			false,  // exclusive
			false,  // no-wait
			q.args, // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	bindings := []struct {
		queue    string
		exchange string
	}{
		{MainQueue(queue), ExchangeJobs},
		{DeadLetterQueue(queue), ExchangeDLX},
	}

	for _, b := range bindings {
		if err := ch.QueueBind(b.queue, queue, b.exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// declareDelayQueue создаёт очередь задержки уровня delay. Consumer'ов у неё нет:
// по истечении TTL сообщение уходит в DLX = relay.jobs.
func declareDelayQueue(ch *amqp.Channel, queue string, delay time.Duration) error {
	name := DelayQueue(queue, delay)
	_, err := ch.QueueDeclare(
		name,                         // name
		true,                         // durable
		false,                        // delete when unused
		false,                        // exclusive
		false,                        // no-wait
		delayQueueArgs(queue, delay), // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	return nil
}

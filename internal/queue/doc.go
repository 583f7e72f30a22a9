// Package queue — очередь задач pipeline с гарантией at-least-once.
//
// Структура:
//   - job.go        — Job, AddOptions, Backoff, payload'ы задач
//   - queue.go      — контракт Producer/Consumer
//   - pool.go       — пул обработчиков: concurrency + rate limiter, решение retry/DLQ
//   - dedup.go      — реестр job id в Redis (дубликат id → no-op)
//   - memory.go     — in-memory реализация (dev режим и тесты)
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — exchanges и очереди RabbitMQ
//   - rabbitmq.go   — реализация очереди поверх RabbitMQ
//
// Исход обработчика:
//   - nil                — задача завершена
//   - Permanent(err)     — задача отброшена в DLQ без повторов
//   - любая другая error — повтор с backoff, пока Attempt < MaxAttempts, затем DLQ
//
// Очереди RabbitMQ (для очереди <q>):
//
//	relay.jobs (direct)
//	└── relay.<q> [routing: <q>]
//	        DLX: relay.dlx → dlq.<q>
//	relay.<q>.delay — без consumer'ов, TTL сообщения = задержка, затем обратно в relay.<q>
//	relay.dlx (direct)
//	└── dlq.<q> [routing: <q>] — ручной разбор
package queue

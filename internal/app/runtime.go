package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/shaiso/Relay/internal/api"
	"github.com/shaiso/Relay/internal/config"
	"github.com/shaiso/Relay/internal/events"
	"github.com/shaiso/Relay/internal/queue"
	"github.com/shaiso/Relay/internal/repo"
	"github.com/shaiso/Relay/internal/telemetry"
)

// ConfigPathEnv — переменная окружения с путём к relay.yaml.
const ConfigPathEnv = "RELAY_CONFIG"

var (
	// ErrUnknownDriver — неизвестный драйвер очереди.
	ErrUnknownDriver = errors.New("unknown queue driver")

	// ErrLocalQueue — процессу нужна очередь, общая с relay-worker.
	ErrLocalQueue = errors.New("in-memory queue is not shared between processes")
)

// Runtime — ресурсы процесса. Закрываются в обратном порядке открытия.
type Runtime struct {
	Settings *config.Settings
	Logger   *slog.Logger

	Pool  *pgxpool.Pool
	Redis *redis.Client
	Queue queue.Queue
	Conn  *queue.Connection

	mu      sync.Mutex
	closers []func(context.Context) error
}

// Init загружает конфигурацию и настраивает логгер и трейсинг.
func Init(ctx context.Context, service string) (*Runtime, error) {
	settings, err := config.Load(os.Getenv(ConfigPathEnv))
	if err != nil {
		return nil, err
	}

	logger := telemetry.SetupLogger(telemetry.LogOptions{
		Level:  settings.Log.Level,
		Format: settings.Log.Format,
		File:   settings.Log.File,
	}).With("service", service)

	rt := &Runtime{Settings: settings, Logger: logger}

	if endpoint := settings.Observability.TracingEndpoint; endpoint != "" {
		shutdown, err := telemetry.InitTracing(ctx, settings.Observability.ServiceName+"-"+service, endpoint)
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		rt.onClose(shutdown)
		logger.Info("tracing enabled", "endpoint", endpoint)
	}

	return rt, nil
}

func (rt *Runtime) onClose(fn func(context.Context) error) {
	rt.mu.Lock()
	rt.closers = append(rt.closers, fn)
	rt.mu.Unlock()
}

// OpenDatabase подключается к PostgreSQL.
func (rt *Runtime) OpenDatabase(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := repo.NewPool(ctx, rt.Settings.Database.DSN, rt.Settings.Database.MaxConns)
	if err != nil {
		return nil, err
	}
	rt.Pool = pool
	rt.onClose(func(context.Context) error {
		pool.Close()
		return nil
	})

	rt.Logger.Info("database connected")
	return pool, nil
}

// OpenRedis подключается к Redis и проверяет соединение.
func (rt *Runtime) OpenRedis(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     rt.Settings.Redis.Addr,
		Password: rt.Settings.Redis.Password,
		DB:       rt.Settings.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	rt.Redis = client
	rt.onClose(func(context.Context) error { return client.Close() })

	rt.Logger.Info("redis connected", "addr", rt.Settings.Redis.Addr)
	return client, nil
}

// LocalQueue сообщает, что очередь живёт внутри процесса (драйвер memory).
func (rt *Runtime) LocalQueue() bool {
	return rt.Settings.Queue.Driver == "memory"
}

// RequireSharedQueue отклоняет драйвер memory для процессов, чьи задачи
// потребляет другой процесс.
func (rt *Runtime) RequireSharedQueue() error {
	if rt.LocalQueue() {
		return fmt.Errorf("%w: use queue.driver=rabbitmq or run relay-worker alone", ErrLocalQueue)
	}
	return nil
}

// OpenQueue создаёт очередь выбранного драйвера.
// Для rabbitmq нужен открытый Redis (реестр job id).
func (rt *Runtime) OpenQueue() (queue.Queue, error) {
	switch rt.Settings.Queue.Driver {
	case "memory":
		rt.Queue = queue.NewMemory(rt.Logger)
		rt.Logger.Warn("using in-memory queue, jobs are lost on restart")

	case "rabbitmq":
		if rt.Redis == nil {
			return nil, errors.New("rabbitmq queue requires redis")
		}
		conn, err := queue.Dial(rt.Settings.Queue.URL, rt.Logger)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		rt.Conn = conn
		rt.Queue = queue.NewRabbitMQ(queue.RabbitMQConfig{
			Conn:   conn,
			Dedup:  queue.NewRedisDedup(rt.Redis, rt.Settings.Queue.DedupTTL),
			Logger: rt.Logger,
		})
		rt.onClose(func(context.Context) error { return conn.Close() })
		rt.Logger.Info("rabbitmq connected")

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, rt.Settings.Queue.Driver)
	}

	q := rt.Queue
	rt.onClose(func(context.Context) error { return q.Close() })
	return q, nil
}

// Events собирает получателей событий из events.sinks.
// Sink amqp требует драйвер rabbitmq; без него он пропускается.
func (rt *Runtime) Events() events.Sink {
	cfg := rt.Settings.Events
	var sinks events.Multi

	if cfg.HasSink("log") {
		sinks = append(sinks, events.NewLogSink(rt.Logger))
	}
	if cfg.HasSink("metrics") {
		sinks = append(sinks, events.MetricsSink{})
	}
	if cfg.HasSink("amqp") {
		if rt.Conn != nil {
			sinks = append(sinks, events.NewAMQPSink(rt.Conn, rt.Logger))
		} else {
			rt.Logger.Warn("amqp event sink requires rabbitmq queue driver, skipped")
		}
	}
	if cfg.HasSink("kafka") {
		sink := events.NewKafkaSink(events.NewKafkaWriter(events.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		}), rt.Logger)
		sinks = append(sinks, sink)
		rt.onClose(func(context.Context) error { return sink.Close() })
	}

	if len(sinks) == 0 {
		return events.Nop{}
	}
	return sinks
}

// Checks возвращает открытые зависимости для /healthz.
func (rt *Runtime) Checks() map[string]api.Pinger {
	checks := make(map[string]api.Pinger)
	if rt.Pool != nil {
		checks["database"] = rt.Pool
	}
	if rt.Redis != nil {
		checks["redis"] = redisPinger{rt.Redis}
	}
	if rt.Conn != nil {
		checks["queue"] = rt.Conn
	}
	return checks
}

// Close освобождает ресурсы в обратном порядке.
func (rt *Runtime) Close(ctx context.Context) {
	rt.mu.Lock()
	closers := rt.closers
	rt.closers = nil
	rt.mu.Unlock()

	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil {
			rt.Logger.Warn("close error", "error", err)
		}
	}
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

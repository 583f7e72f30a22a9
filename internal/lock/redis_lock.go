package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shaiso/Relay/internal/domain"
)

// releaseScript удаляет ключ, только если его значение совпадает с токеном.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`

// Client — подмножество команд Redis, нужное блокировке.
// Реализуется *redis.Client и *redis.ClusterClient.
type Client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Get(ctx context.Context, key string) *redis.StringCmd
	PTTL(ctx context.Context, key string) *redis.DurationCmd
}

// RedisLock — распределённая блокировка с TTL.
//
// Токены захваченных ключей хранятся в процессе: Release удаляет
// ключ только по собственному токену.
type RedisLock struct {
	client   Client
	instance string
	logger   *slog.Logger

	mu     sync.Mutex
	tokens map[string]string
}

// Config — конфигурация RedisLock.
type Config struct {
	Client Client

	// Instance — идентификатор процесса в токене владельца (default: hostname).
	Instance string

	Logger *slog.Logger
}

// New создаёт RedisLock.
func New(cfg Config) *RedisLock {
	instance := cfg.Instance
	if instance == "" {
		instance, _ = os.Hostname()
		if instance == "" {
			instance = "relay"
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &RedisLock{
		client:   cfg.Client,
		instance: instance,
		logger:   logger,
		tokens:   make(map[string]string),
	}
}

// Acquire пытается захватить блокировку.
// Возвращает true, только если этот вызов установил владение.
func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	if ttl <= 0 {
		return false, ErrInvalidTTL
	}

	token := fmt.Sprintf("%s:%s", l.instance, uuid.New().String())

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		l.logger.Debug("lock is held by another instance", "key", key)
		return false, nil
	}

	l.mu.Lock()
	l.tokens[key] = token
	l.mu.Unlock()

	l.logger.Debug("lock acquired", "key", key, "ttl", ttl)
	return true, nil
}

// Release освобождает блокировку, если она принадлежит этому процессу.
// Не захваченный, истёкший или перехваченный ключ — no-op.
func (l *RedisLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	token, ok := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()

	if !ok {
		return nil
	}

	deleted, err := l.client.Eval(ctx, releaseScript, []string{key}, token).Int64()
	if err != nil {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	if deleted == 0 {
		l.logger.Warn("lock expired before release", "key", key)
		return nil
	}

	l.logger.Debug("lock released", "key", key)
	return nil
}

// Holder возвращает текущее состояние блокировки. Только чтение.
func (l *RedisLock) Holder(ctx context.Context, key string) (domain.LockState, error) {
	state := domain.LockState{Key: key}

	holder, err := l.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("get lock %s: %w", key, err)
	}

	ttl, err := l.client.PTTL(ctx, key).Result()
	if err != nil {
		return state, fmt.Errorf("ttl lock %s: %w", key, err)
	}

	state.Held = true
	state.Holder = holder
	if ttl > 0 {
		state.TTLRemaining = ttl
	}
	return state, nil
}

package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Dedup — реестр ожидающих задач по job id.
type Dedup interface {
	// Reserve регистрирует id. false — задача с таким id уже ожидает.
	Reserve(ctx context.Context, queue, id string) (bool, error)

	// Forget снимает регистрацию после завершения или отбрасывания задачи.
	Forget(ctx context.Context, queue, id string) error
}

// RedisClient — команды Redis, нужные реестру. Реализуется *redis.Client.
type RedisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisDedup хранит id ожидающих задач в ключах relay:job:<queue>:<id>.
//
// TTL ограничивает жизнь ключа, если задача потеряна без Forget.
type RedisDedup struct {
	client RedisClient
	ttl    time.Duration
}

// NewRedisDedup создаёт реестр с указанным TTL ключей.
func NewRedisDedup(client RedisClient, ttl time.Duration) *RedisDedup {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDedup{client: client, ttl: ttl}
}

func dedupKey(queue, id string) string {
	return fmt.Sprintf("relay:job:%s:%s", queue, id)
}

// Reserve выполняет SET NX EX.
func (d *RedisDedup) Reserve(ctx context.Context, queue, id string) (bool, error) {
	ok, err := d.client.SetNX(ctx, dedupKey(queue, id), 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve job %s: %w", id, err)
	}
	return ok, nil
}

// Forget удаляет ключ задачи.
func (d *RedisDedup) Forget(ctx context.Context, queue, id string) error {
	if err := d.client.Del(ctx, dedupKey(queue, id)).Err(); err != nil {
		return fmt.Errorf("forget job %s: %w", id, err)
	}
	return nil
}

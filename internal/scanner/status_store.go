package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shaiso/Relay/internal/domain"
)

// LastResultKey — ключ Redis с результатом последнего цикла.
const LastResultKey = "relay:scan:last"

// RedisClient — подмножество команд Redis для StatusStore.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// StatusStore хранит последний ScanResult в Redis как JSON.
type StatusStore struct {
	client RedisClient
}

// NewStatusStore создаёт StatusStore.
func NewStatusStore(client RedisClient) *StatusStore {
	return &StatusStore{client: client}
}

// SaveLast перезаписывает последний результат.
func (s *StatusStore) SaveLast(ctx context.Context, result domain.ScanResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal scan result: %w", err)
	}
	if err := s.client.Set(ctx, LastResultKey, data, 0).Err(); err != nil {
		return fmt.Errorf("store scan result: %w", err)
	}
	return nil
}

// Last возвращает последний результат или nil, если циклов ещё не было.
func (s *StatusStore) Last(ctx context.Context) (*domain.ScanResult, error) {
	data, err := s.client.Get(ctx, LastResultKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load scan result: %w", err)
	}

	var result domain.ScanResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal scan result: %w", err)
	}
	if result.QueuedPostIDs == nil {
		result.QueuedPostIDs = []int64{}
	}
	return &result, nil
}

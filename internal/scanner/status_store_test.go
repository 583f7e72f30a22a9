package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shaiso/Relay/internal/domain"
)

type fakeRedis struct {
	data map[string]string
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func TestStatusStore(t *testing.T) {
	client := &fakeRedis{data: map[string]string{}}
	store := NewStatusStore(client)
	ctx := context.Background()

	last, err := store.Last(ctx)
	if err != nil || last != nil {
		t.Fatalf("empty store: last = %v, err = %v", last, err)
	}

	in := domain.ScanResult{PostsFound: 2, PostsQueued: 1, PostsFailed: 1, QueuedPostIDs: []int64{5}}
	if err := store.SaveLast(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok := client.data[LastResultKey]; !ok {
		t.Fatalf("key %s not written", LastResultKey)
	}

	last, err = store.Last(ctx)
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if last.PostsFound != 2 || last.PostsFailed != 1 || len(last.QueuedPostIDs) != 1 || last.QueuedPostIDs[0] != 5 {
		t.Errorf("last = %+v", last)
	}
}

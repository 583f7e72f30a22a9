package lock

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis — in-memory реализация Client.
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = value.(string)
	f.ttl[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Eval(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data[keys[0]] == args[0].(string) {
		delete(f.data, keys[0])
		delete(f.ttl, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) PTTL(_ context.Context, key string) *redis.DurationCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	return redis.NewDurationResult(f.ttl[key], nil)
}

// expire имитирует истечение TTL.
func (f *fakeRedis) expire(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	delete(f.ttl, key)
}

const testKey = "relay:lock:test"

func TestAcquire_Exclusive(t *testing.T) {
	rdb := newFakeRedis()
	a := New(Config{Client: rdb, Instance: "a"})
	b := New(Config{Client: rdb, Instance: "b"})
	ctx := context.Background()

	ok, err := a.Acquire(ctx, testKey, time.Minute)
	if err != nil || !ok {
		t.Fatalf("a.Acquire() = %v, %v; want true", ok, err)
	}

	ok, err = b.Acquire(ctx, testKey, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("b acquired a lock held by a")
	}

	if err := a.Release(ctx, testKey); err != nil {
		t.Fatalf("release: %v", err)
	}

	ok, _ = b.Acquire(ctx, testKey, time.Minute)
	if !ok {
		t.Error("b should acquire after release")
	}
}

func TestAcquire_Concurrent(t *testing.T) {
	rdb := newFakeRedis()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := New(Config{Client: rdb})
			ok, err := l.Acquire(ctx, testKey, time.Minute)
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			if ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("winners = %d, want 1", winners)
	}
}

func TestAcquire_InvalidArgs(t *testing.T) {
	l := New(Config{Client: newFakeRedis()})

	if _, err := l.Acquire(context.Background(), testKey, 0); !errors.Is(err, ErrInvalidTTL) {
		t.Errorf("ttl=0: err = %v, want ErrInvalidTTL", err)
	}
	if _, err := l.Acquire(context.Background(), "", time.Second); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("empty key: err = %v, want ErrEmptyKey", err)
	}
}

func TestAcquire_RedisError(t *testing.T) {
	rdb := newFakeRedis()
	rdb.err = errors.New("connection refused")
	l := New(Config{Client: rdb})

	ok, err := l.Acquire(context.Background(), testKey, time.Second)
	if err == nil || ok {
		t.Errorf("Acquire() = %v, %v; want false and error", ok, err)
	}
}

func TestRelease_NotHeldIsNoop(t *testing.T) {
	rdb := newFakeRedis()
	a := New(Config{Client: rdb, Instance: "a"})
	b := New(Config{Client: rdb, Instance: "b"})
	ctx := context.Background()

	// Никогда не захватывали
	if err := b.Release(ctx, testKey); err != nil {
		t.Errorf("release of unknown key: %v", err)
	}

	a.Acquire(ctx, testKey, time.Minute)

	// Чужая блокировка не снимается
	if err := b.Release(ctx, testKey); err != nil {
		t.Errorf("release by non-owner: %v", err)
	}
	if _, ok := rdb.data[testKey]; !ok {
		t.Error("non-owner release removed the key")
	}

	// Повторный Release — no-op
	if err := a.Release(ctx, testKey); err != nil {
		t.Errorf("first release: %v", err)
	}
	if err := a.Release(ctx, testKey); err != nil {
		t.Errorf("second release: %v", err)
	}
}

func TestRelease_AfterExpiryDoesNotStealNewOwner(t *testing.T) {
	rdb := newFakeRedis()
	a := New(Config{Client: rdb, Instance: "a"})
	b := New(Config{Client: rdb, Instance: "b"})
	ctx := context.Background()

	a.Acquire(ctx, testKey, time.Minute)
	rdb.expire(testKey)

	if ok, _ := b.Acquire(ctx, testKey, time.Minute); !ok {
		t.Fatal("b should acquire expired lock")
	}

	if err := a.Release(ctx, testKey); err != nil {
		t.Fatalf("release: %v", err)
	}
	if v := rdb.data[testKey]; !strings.HasPrefix(v, "b:") {
		t.Errorf("holder = %q, want b's token", v)
	}
}

func TestHolder(t *testing.T) {
	rdb := newFakeRedis()
	l := New(Config{Client: rdb, Instance: "scheduler-1"})
	ctx := context.Background()

	state, err := l.Holder(ctx, testKey)
	if err != nil {
		t.Fatalf("holder: %v", err)
	}
	if state.Held {
		t.Error("expected free lock")
	}

	l.Acquire(ctx, testKey, 30*time.Second)

	state, err = l.Holder(ctx, testKey)
	if err != nil {
		t.Fatalf("holder: %v", err)
	}
	if !state.Held || !strings.HasPrefix(state.Holder, "scheduler-1:") {
		t.Errorf("unexpected state: %+v", state)
	}
	if state.TTLRemaining != 30*time.Second {
		t.Errorf("ttl = %v, want 30s", state.TTLRemaining)
	}
}

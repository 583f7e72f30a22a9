package scanner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Relay/internal/domain"
	"github.com/shaiso/Relay/internal/events"
	"github.com/shaiso/Relay/internal/queue"
)

// fakeLock — блокировка в памяти с семантикой SETNX.
type fakeLock struct {
	mu       sync.Mutex
	holder   string
	acquires int
	releases int
	err      error
}

func (l *fakeLock) Acquire(_ context.Context, _ string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquires++
	if l.err != nil {
		return false, l.err
	}
	if l.holder != "" {
		return false, nil
	}
	l.holder = "test"
	return true, nil
}

func (l *fakeLock) Release(_ context.Context, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releases++
	l.holder = ""
	return nil
}

func (l *fakeLock) Holder(_ context.Context, key string) (domain.LockState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return domain.LockState{Key: key, Held: l.holder != "", Holder: l.holder}, nil
}

func (l *fakeLock) held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holder != ""
}

type fakeLister struct {
	posts     []domain.Post
	err       error
	lastLimit int
	calls     int
}

func (f *fakeLister) ListDue(_ context.Context, _ time.Time, limit int) ([]domain.Post, error) {
	f.calls++
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if len(f.posts) > limit {
		return f.posts[:limit], nil
	}
	return f.posts, nil
}

type memResults struct {
	last  *domain.ScanResult
	saves int
}

func (m *memResults) SaveLast(_ context.Context, r domain.ScanResult) error {
	m.saves++
	m.last = &r
	return nil
}

func (m *memResults) Last(context.Context) (*domain.ScanResult, error) {
	return m.last, nil
}

// failingProducer отклоняет задачи для заданных постов.
type failingProducer struct {
	queue.Producer
	fail map[string]bool
}

func (p *failingProducer) Add(ctx context.Context, q, name string, payload any, opts queue.AddOptions) (bool, error) {
	if p.fail[opts.JobID] {
		return false, errors.New("broker unavailable")
	}
	return p.Producer.Add(ctx, q, name, payload, opts)
}

func duePosts(ids ...int64) []domain.Post {
	posts := make([]domain.Post, 0, len(ids))
	for _, id := range ids {
		posts = append(posts, domain.Post{
			ID:         id,
			TenantID:   "t1",
			Status:     domain.PostStatusScheduled,
			MaxRetries: 3,
		})
	}
	return posts
}

type fixture struct {
	lock    *fakeLock
	lister  *fakeLister
	q       *queue.Memory
	results *memResults
	events  *events.Recorder
	scanner *Scanner
}

func newFixture(t *testing.T, posts []domain.Post) *fixture {
	t.Helper()
	f := &fixture{
		lock:    &fakeLock{},
		lister:  &fakeLister{posts: posts},
		q:       queue.NewMemory(nil),
		results: &memResults{},
		events:  &events.Recorder{},
	}
	t.Cleanup(func() { f.q.Close() })

	f.scanner = New(Config{
		Lock:     f.lock,
		Posts:    f.lister,
		Producer: f.q,
		Results:  f.results,
		Events:   f.events,
	})
	return f
}

func TestScan_QueuesDuePosts(t *testing.T) {
	f := newFixture(t, duePosts(1, 2, 3))

	res, err := f.scanner.Scan(context.Background(), queue.ScanJob{BatchSize: 50})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if res.PostsFound != 3 || res.PostsQueued != 3 || res.PostsFailed != 0 {
		t.Errorf("result = %+v, want 3/3/0", res)
	}
	if len(res.QueuedPostIDs) != 3 || res.QueuedPostIDs[0] != 1 {
		t.Errorf("queued ids = %v", res.QueuedPostIDs)
	}

	jobs := f.q.Jobs(queue.QueuePublish)
	if len(jobs) != 3 {
		t.Fatalf("jobs = %d, want 3", len(jobs))
	}
	job := jobs[0]
	if job.ID != "publish:1" {
		t.Errorf("job id = %q, want publish:1", job.ID)
	}
	if job.MaxAttempts != 4 {
		t.Errorf("max attempts = %d, want 4", job.MaxAttempts)
	}
	if job.Backoff.Type != queue.BackoffExponential || job.Backoff.Delay != DefaultBackoffDelay {
		t.Errorf("backoff = %+v", job.Backoff)
	}

	payload, err := queue.Decode[queue.PublishJob](&job)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.PostID != 1 || payload.TenantID != "t1" {
		t.Errorf("payload = %+v", payload)
	}

	if f.lock.held() {
		t.Error("lock must be released after scan")
	}
	if f.results.saves != 1 {
		t.Errorf("results saved %d times, want 1", f.results.saves)
	}

	evs := f.events.Events()
	if len(evs) != 1 || evs[0].Type != events.TypeScanCompleted || evs[0].Scan == nil {
		t.Fatalf("events = %+v", evs)
	}
}

// Повторный цикл до завершения задач не создаёт дубликатов.
func TestScan_IdempotentEnqueue(t *testing.T) {
	f := newFixture(t, duePosts(7))

	for i := 0; i < 2; i++ {
		res, err := f.scanner.Scan(context.Background(), queue.ScanJob{})
		if err != nil {
			t.Fatalf("scan %d: %v", i, err)
		}
		if res.PostsQueued != 1 || res.PostsFailed != 0 {
			t.Errorf("scan %d result = %+v", i, res)
		}
	}

	if got := len(f.q.Jobs(queue.QueuePublish)); got != 1 {
		t.Errorf("jobs = %d, want 1", got)
	}
}

func TestScan_SkipsWhenLockHeld(t *testing.T) {
	f := newFixture(t, duePosts(1))
	f.lock.holder = "other-instance"

	res, err := f.scanner.Scan(context.Background(), queue.ScanJob{})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if !res.Skipped {
		t.Error("expected skipped result")
	}
	if res.PostsFound != 0 || res.PostsQueued != 0 || res.PostsFailed != 0 || len(res.QueuedPostIDs) != 0 {
		t.Errorf("result = %+v, want empty", res)
	}
	if res.QueuedPostIDs == nil {
		t.Error("queued ids must be empty, not nil")
	}
	if f.lister.calls != 0 {
		t.Error("lister must not be called without the lock")
	}
	if f.results.saves != 0 {
		t.Error("skipped scan must not be stored as last result")
	}
	if f.lock.holder != "other-instance" {
		t.Error("foreign lock must not be released")
	}
}

// Два одновременных цикла: ставит задачи только один.
func TestScan_LockExclusivity(t *testing.T) {
	f := newFixture(t, duePosts(1, 2))

	block := make(chan struct{})
	entered := make(chan struct{})
	slow := &blockingLister{fakeLister: f.lister, entered: entered, block: block}
	first := New(Config{Lock: f.lock, Posts: slow, Producer: f.q})

	var (
		wg       sync.WaitGroup
		firstRes domain.ScanResult
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstRes, _ = first.Scan(context.Background(), queue.ScanJob{})
	}()

	<-entered
	secondRes, err := f.scanner.Scan(context.Background(), queue.ScanJob{Manual: true})
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	close(block)
	wg.Wait()

	if !secondRes.Skipped || secondRes.PostsQueued != 0 {
		t.Errorf("second result = %+v, want skipped", secondRes)
	}
	if firstRes.PostsQueued != 2 {
		t.Errorf("first result = %+v, want 2 queued", firstRes)
	}
	if got := len(f.q.Jobs(queue.QueuePublish)); got != 2 {
		t.Errorf("jobs = %d, want 2", got)
	}
}

type blockingLister struct {
	*fakeLister
	entered chan struct{}
	block   chan struct{}
}

func (b *blockingLister) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Post, error) {
	close(b.entered)
	<-b.block
	return b.fakeLister.ListDue(ctx, now, limit)
}

func TestScan_QueryFailureReleasesLock(t *testing.T) {
	f := newFixture(t, nil)
	f.lister.err = errors.New("connection reset")

	_, err := f.scanner.Scan(context.Background(), queue.ScanJob{})
	if err == nil {
		t.Fatal("expected error")
	}

	if f.lock.releases != 1 || f.lock.held() {
		t.Errorf("lock releases = %d, held = %v", f.lock.releases, f.lock.held())
	}

	evs := f.events.Events()
	if len(evs) != 1 || evs[0].Error == "" {
		t.Errorf("expected scan event with error, got %+v", evs)
	}
}

func TestScan_LockErrorIsReturned(t *testing.T) {
	f := newFixture(t, duePosts(1))
	f.lock.err = errors.New("redis down")

	if _, err := f.scanner.Scan(context.Background(), queue.ScanJob{}); err == nil {
		t.Fatal("expected error")
	}
	if f.lister.calls != 0 {
		t.Error("lister must not be called")
	}
}

func TestScan_EnqueueFailureCounted(t *testing.T) {
	f := newFixture(t, duePosts(1, 2, 3))
	f.scanner.producer = &failingProducer{
		Producer: f.q,
		fail:     map[string]bool{"publish:2": true},
	}

	res, err := f.scanner.Scan(context.Background(), queue.ScanJob{})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if res.PostsFound != 3 || res.PostsQueued != 2 || res.PostsFailed != 1 {
		t.Errorf("result = %+v, want 3/2/1", res)
	}
	for _, id := range res.QueuedPostIDs {
		if id == 2 {
			t.Error("failed post must not be listed as queued")
		}
	}
}

func TestScan_BatchSize(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"default", 0, DefaultBatchSize},
		{"explicit", 10, 10},
		{"clamped", 10000, MaxBatchSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			if _, err := f.scanner.Scan(context.Background(), queue.ScanJob{BatchSize: tt.in}); err != nil {
				t.Fatalf("scan: %v", err)
			}
			if f.lister.lastLimit != tt.want {
				t.Errorf("limit = %d, want %d", f.lister.lastLimit, tt.want)
			}
		})
	}
}

func TestScan_EmptyResultShape(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.scanner.Scan(context.Background(), queue.ScanJob{})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.Skipped {
		t.Error("empty scan is not a skip")
	}
	if res.QueuedPostIDs == nil || len(res.QueuedPostIDs) != 0 {
		t.Errorf("queued ids = %v, want []", res.QueuedPostIDs)
	}
}

func TestStatus(t *testing.T) {
	f := newFixture(t, duePosts(1))

	st, err := f.scanner.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Lock.Held || st.LastScan != nil {
		t.Errorf("initial status = %+v", st)
	}

	if _, err := f.scanner.Scan(context.Background(), queue.ScanJob{}); err != nil {
		t.Fatalf("scan: %v", err)
	}

	st, err = f.scanner.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.LastScan == nil || st.LastScan.PostsQueued != 1 {
		t.Errorf("last scan = %+v", st.LastScan)
	}
	if st.Lock.Key != LockKey {
		t.Errorf("lock key = %q", st.Lock.Key)
	}
	if f.lock.acquires != 1 {
		t.Error("status must not touch the lock")
	}
}

func TestHandleJob_InvalidPayload(t *testing.T) {
	f := newFixture(t, nil)

	err := f.scanner.HandleJob(context.Background(), &queue.Job{Payload: []byte(`{"batchSize":"x"}`)})
	if !queue.IsPermanent(err) {
		t.Errorf("expected permanent error, got %v", err)
	}
}

package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"

	"github.com/shaiso/Relay/internal/domain"
	"github.com/shaiso/Relay/internal/telemetry"
)

func TestTypeForStatus(t *testing.T) {
	tests := []struct {
		status domain.PostStatus
		want   Type
	}{
		{domain.PostStatusPublished, TypePostPublished},
		{domain.PostStatusPartiallyPublished, TypePostPartiallyPublished},
		{domain.PostStatusFailed, TypePostFailed},
	}
	for _, tt := range tests {
		if got := TypeForStatus(tt.status); got != tt.want {
			t.Errorf("TypeForStatus(%s) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestMulti_FanOutAndTimestamp(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	Multi{a, b, Nop{}}.Emit(context.Background(), Event{Type: TypePostRetrying, PostID: 1})

	for i, r := range []*Recorder{a, b} {
		evs := r.Events()
		if len(evs) != 1 {
			t.Fatalf("sink %d: events = %d, want 1", i, len(evs))
		}
		if evs[0].At.IsZero() {
			t.Errorf("sink %d: timestamp not set", i)
		}
	}
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	s.Emit(context.Background(), Event{
		Type:     TypeJobDiscarded,
		PostID:   12,
		TenantID: "acme",
		Reason:   ReasonStatusGuard,
	})

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal log: %v", err)
	}
	if rec["level"] != "WARN" || rec["event"] != string(TypeJobDiscarded) || rec["reason"] != ReasonStatusGuard {
		t.Errorf("unexpected log record: %v", rec)
	}
}

func TestMetricsSink(t *testing.T) {
	published := testutil.ToFloat64(telemetry.PostsProcessed.WithLabelValues("PARTIALLY_PUBLISHED"))
	twitterFail := testutil.ToFloat64(telemetry.PlatformResults.WithLabelValues("TWITTER", "failure"))
	skipped := testutil.ToFloat64(telemetry.ScanCycles.WithLabelValues("skipped"))

	var s MetricsSink
	s.Emit(context.Background(), Event{
		Type:   TypePostPartiallyPublished,
		Status: domain.PostStatusPartiallyPublished,
		Platforms: []domain.PlatformResult{
			{Platform: domain.PlatformLinkedIn, Success: true},
			{Platform: domain.PlatformTwitter, Error: "rate limited"},
		},
	})
	s.Emit(context.Background(), Event{Type: TypeScanCompleted, Scan: &domain.ScanResult{Skipped: true}})

	if got := testutil.ToFloat64(telemetry.PostsProcessed.WithLabelValues("PARTIALLY_PUBLISHED")); got != published+1 {
		t.Errorf("posts processed = %v, want %v", got, published+1)
	}
	if got := testutil.ToFloat64(telemetry.PlatformResults.WithLabelValues("TWITTER", "failure")); got != twitterFail+1 {
		t.Errorf("twitter failures = %v, want %v", got, twitterFail+1)
	}
	if got := testutil.ToFloat64(telemetry.ScanCycles.WithLabelValues("skipped")); got != skipped+1 {
		t.Errorf("skipped scans = %v, want %v", got, skipped+1)
	}
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaSink(t *testing.T) {
	w := &fakeWriter{}
	s := NewKafkaSink(w, nil)

	s.Emit(context.Background(), Event{Type: TypePostPublished, PostID: 42, Status: domain.PostStatusPublished})
	s.Emit(context.Background(), Event{Type: TypeScanCompleted, Scan: &domain.ScanResult{PostsFound: 1}})

	if len(w.msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "42" {
		t.Errorf("key = %s, want 42", w.msgs[0].Key)
	}
	if string(w.msgs[1].Key) != string(TypeScanCompleted) {
		t.Errorf("key = %s, want scan.completed", w.msgs[1].Key)
	}

	var e Event
	if err := json.Unmarshal(w.msgs[0].Value, &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Status != domain.PostStatusPublished {
		t.Errorf("status = %s", e.Status)
	}
}

func TestKafkaSink_ErrorIsLoggedNotReturned(t *testing.T) {
	var buf bytes.Buffer
	w := &fakeWriter{err: errors.New("broker down")}
	s := NewKafkaSink(w, slog.New(slog.NewTextHandler(&buf, nil)))

	s.Emit(context.Background(), Event{Type: TypePostFailed, PostID: 1})

	if !strings.Contains(buf.String(), "broker down") {
		t.Errorf("expected error in log, got %q", buf.String())
	}
}

// Неудачное объявление exchange не запоминается: следующий Emit пробует снова.
func TestAMQPSink_DeclareRetriesAfterError(t *testing.T) {
	calls := 0
	fail := true
	s := &AMQPSink{
		logger: slog.Default(),
		declareFn: func() error {
			calls++
			if fail {
				return errors.New("channel not open")
			}
			return nil
		},
	}

	if err := s.declare(); err == nil {
		t.Fatal("first declare: want error")
	}

	fail = false
	if err := s.declare(); err != nil {
		t.Fatalf("second declare: %v", err)
	}
	if err := s.declare(); err != nil {
		t.Fatalf("third declare: %v", err)
	}
	if calls != 2 {
		t.Errorf("declare calls = %d, want 2", calls)
	}
}

func TestAMQPSink_RedeclaresAfterReconnect(t *testing.T) {
	reconnected := make(chan struct{}, 1)
	calls := 0
	s := &AMQPSink{
		logger:      slog.Default(),
		reconnected: reconnected,
		declareFn:   func() error { calls++; return nil },
	}

	s.declare()
	s.declare()
	reconnected <- struct{}{}
	s.declare()

	if calls != 2 {
		t.Errorf("declare calls = %d, want 2", calls)
	}
}

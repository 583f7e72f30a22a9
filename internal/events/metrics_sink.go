package events

import (
	"context"

	"github.com/shaiso/Relay/internal/telemetry"
)

// MetricsSink обновляет Prometheus метрики по событиям.
type MetricsSink struct{}

// Emit обновляет счётчики.
func (MetricsSink) Emit(_ context.Context, e Event) {
	switch e.Type {
	case TypePostPublished, TypePostPartiallyPublished, TypePostFailed:
		telemetry.PostsProcessed.WithLabelValues(string(e.Status)).Inc()
		for _, r := range e.Platforms {
			outcome := "failure"
			if r.Success {
				outcome = "success"
			}
			telemetry.PlatformResults.WithLabelValues(string(r.Platform), outcome).Inc()
		}

	case TypePostRetrying:
		telemetry.JobsRetried.Inc()

	case TypeJobDiscarded:
		telemetry.JobsDiscarded.WithLabelValues(e.Reason).Inc()

	case TypeScanCompleted:
		if e.Scan == nil {
			return
		}
		outcome := "completed"
		switch {
		case e.Error != "":
			outcome = "error"
		case e.Scan.Skipped:
			outcome = "skipped"
		}
		telemetry.ScanCycles.WithLabelValues(outcome).Inc()
		telemetry.ScanPosts.WithLabelValues("found").Add(float64(e.Scan.PostsFound))
		telemetry.ScanPosts.WithLabelValues("queued").Add(float64(e.Scan.PostsQueued))
		telemetry.ScanPosts.WithLabelValues("failed").Add(float64(e.Scan.PostsFailed))
	}
}

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики pipeline. Регистрируются в prometheus.DefaultRegisterer.
var (
	// PostsProcessed — обработанные задачи публикации по итоговому статусу.
	PostsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_posts_processed_total",
		Help: "Publish jobs processed, by resulting post status",
	}, []string{"status"})

	// PlatformResults — результаты публикации по платформам.
	PlatformResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_platform_results_total",
		Help: "Per-platform publish outcomes",
	}, []string{"platform", "outcome"})

	// JobsRetried — задачи, отправленные на повтор после транспортной ошибки.
	JobsRetried = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_publish_jobs_retried_total",
		Help: "Publish jobs scheduled for queue-level retry",
	})

	// JobsDiscarded — задачи, отброшенные из-за нарушения предусловий.
	JobsDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_publish_jobs_discarded_total",
		Help: "Publish jobs discarded as permanent failures",
	}, []string{"reason"})

	// ScanPosts — посты, найденные/поставленные/не поставленные сканером.
	ScanPosts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_scan_posts_total",
		Help: "Scheduled posts seen by the scanner",
	}, []string{"result"})

	// ScanCycles — циклы сканирования по исходу (completed, skipped, error).
	ScanCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_scan_cycles_total",
		Help: "Scan cycles by outcome",
	}, []string{"outcome"})

	// JobDuration — длительность обработки задачи очереди.
	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relay_job_duration_seconds",
		Help:    "Job handler duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"queue"})

	// HTTPRequests — длительность запросов операторского API по маршруту и статусу.
	HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relay_http_request_duration_seconds",
		Help:    "Operator API request duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "status"})
)

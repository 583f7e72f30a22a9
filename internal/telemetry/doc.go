// Package telemetry обеспечивает наблюдаемость pipeline.
//
// Включает:
//   - logging.go — structured logging через slog (stdout и/или файл с ротацией)
//   - metrics.go — Prometheus метрики публикации и сканирования
//   - tracing.go — OpenTelemetry трейсинг (OTLP/HTTP)
//
// Все процессы используют единый формат логирования
// и экспортируют метрики на /metrics endpoint.
package telemetry

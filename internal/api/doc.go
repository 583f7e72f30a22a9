// Package api содержит операторский HTTP API.
//
// Структура:
//   - handler.go        — Handler с DI (сканер, репозитории, logger)
//   - routes.go         — регистрация маршрутов
//   - middleware.go     — middleware (logging, recovery)
//   - response.go       — унифицированные JSON-ответы и обработка ошибок
//   - dto.go            — Data Transfer Objects (request/response)
//   - scan_handler.go   — ручной запуск и состояние сканера
//   - post_handler.go   — история публикаций поста
//   - health_handler.go — /healthz
//
// Метрики Prometheus отдаются на /metrics.
package api

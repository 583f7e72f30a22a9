// Package app собирает зависимости процессов Relay из config.Settings:
// логгер, трейсинг, пул PostgreSQL, Redis, очередь задач, получатели событий
// и служебный HTTP сервер (/healthz, /metrics).
//
// Каждый cmd/relay-* создаёт Runtime, открывает нужные ему ресурсы
// и вызывает Close при завершении.
package app

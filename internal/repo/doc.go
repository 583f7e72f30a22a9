// Package repo — слой хранения pipeline на PostgreSQL (pgx/v5).
//
// Репозитории:
//   - PostRepo    — посты: загрузка, атомарный переход статуса (CAS), запись итога, выборка due
//   - HistoryRepo — история публикации по платформам
//   - ConfigRepo  — настройки публикации арендатора (только чтение)
//
// Схема — migrations/0001_pipeline.sql.
package repo

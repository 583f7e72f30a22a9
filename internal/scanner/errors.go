package scanner

import "errors"

// Ошибки сканера.
var (
	// ErrInvalidBatchSize — batchSize вне допустимого диапазона.
	ErrInvalidBatchSize = errors.New("batch size must be positive")

	// ErrInvalidSchedule — некорректное cron-выражение.
	ErrInvalidSchedule = errors.New("invalid scan schedule")
)

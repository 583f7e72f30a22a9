package lock

import "errors"

// Ошибки блокировки.
var (
	// ErrInvalidTTL — TTL блокировки должен быть положительным.
	ErrInvalidTTL = errors.New("lock ttl must be positive")

	// ErrEmptyKey — пустой ключ блокировки.
	ErrEmptyKey = errors.New("lock key is empty")
)

package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrStatusConflict — статус записи не совпал с ожидаемым (CAS не прошёл).
	ErrStatusConflict = errors.New("status conflict")
)

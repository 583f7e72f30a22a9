package worker

import "errors"

// Ошибки воркера.
var (
	// ErrPostNotFound — поста нет в БД.
	ErrPostNotFound = errors.New("post not found")

	// ErrNotPublishable — пост не в DRAFT/SCHEDULED.
	ErrNotPublishable = errors.New("post is not in a publishable status")

	// ErrConfigNotFound — у арендатора нет PublishingConfig.
	ErrConfigNotFound = errors.New("publishing config not found")

	// ErrInvalidPayload — payload задачи не разбирается.
	ErrInvalidPayload = errors.New("invalid publish job payload")

	// ErrTransient — транспортный сбой адаптера, задача будет повторена.
	ErrTransient = errors.New("transient adapter failure")

	// ErrWriteBack — не удалось записать итог публикации.
	ErrWriteBack = errors.New("post outcome write-back failed")
)

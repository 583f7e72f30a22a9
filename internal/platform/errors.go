package platform

import "errors"

// Ошибки адаптера.
var (
	// ErrTransport — транспортный сбой до получения результата хотя бы одной платформы.
	ErrTransport = errors.New("platform transport failure")

	// ErrNoCredentials — у арендатора нет учётных данных для платформы.
	ErrNoCredentials = errors.New("no credentials for platform")

	// ErrUnsupportedPlatform — для платформы не зарегистрирован клиент.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrProviderRejected — провайдер вернул ошибку (HTTP >= 400).
	ErrProviderRejected = errors.New("provider rejected request")
)

package queue

import "errors"

// Ошибки очереди.
var (
	// ErrClosed — очередь закрыта.
	ErrClosed = errors.New("queue closed")

	// ErrNoChannel — нет открытого AMQP канала.
	ErrNoChannel = errors.New("no channel available")

	// ErrEmptyQueueName — не указано имя очереди.
	ErrEmptyQueueName = errors.New("queue name is empty")
)

// permanentError помечает ошибку, после которой задачу нельзя повторять.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent оборачивает ошибку: задача уходит в DLQ без повторов.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent проверяет, помечена ли ошибка как permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

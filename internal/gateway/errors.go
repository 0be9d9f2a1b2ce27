package gateway

import (
	"errors"
	"fmt"
)

// Ошибки транспортного адаптера.
var (
	// ErrMissingCredentials — для актора нет сессии с токеном.
	// Ошибка последовательности шагов, не повторяется.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrRetryExhausted — все попытки запроса исчерпаны.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrUnexpectedResponse — ответ 2xx не удалось разобрать.
	ErrUnexpectedResponse = errors.New("unexpected response body")
)

// RequestError — терминальная ошибка вызова бэкенда после всех попыток.
//
// Сохраняет статус и тело последнего ответа: шаг C3 извлекает
// из тела 409 идентификатор существующего assignment.
type RequestError struct {
	// Method и Path — параметры вызова.
	Method string
	Path   string

	// Status — HTTP-статус последнего ответа, 0 при сетевой ошибке.
	Status int

	// Body — тело последнего ответа, если было получено.
	Body []byte

	// Attempts — сколько попыток было сделано.
	Attempts int

	// Cause — последняя низкоуровневая ошибка (сетевая), если была.
	Cause error
}

// Error реализует интерфейс error.
func (e *RequestError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s %s failed after %d attempts: HTTP %d",
			e.Method, e.Path, e.Attempts, e.Status)
	}
	return fmt.Sprintf("%s %s failed after %d attempts: %v",
		e.Method, e.Path, e.Attempts, e.Cause)
}

// Unwrap возвращает ErrRetryExhausted и низкоуровневую причину.
func (e *RequestError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrRetryExhausted, e.Cause}
	}
	return []error{ErrRetryExhausted}
}

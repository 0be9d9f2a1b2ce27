package workflow

import "errors"

// Ошибки предусловий и разбора ответов.
var (
	// ErrMissingSession — в контексте нет сессии требуемого актора.
	// Ошибка последовательности, шаг падает без retry.
	ErrMissingSession = errors.New("actor session not found in context")

	// ErrMissingInput — в контексте нет идентификатора,
	// который должен был записать предыдущий шаг.
	ErrMissingInput = errors.New("missing upstream identifier")

	// ErrMissingField — 2xx-ответ бэкенда без ожидаемого поля.
	// Некорректный успех считается ошибкой, а не пустым значением.
	ErrMissingField = errors.New("expected field missing in response")

	// ErrNoCranes — у владельца нет доступных кранов.
	ErrNoCranes = errors.New("no available cranes found for owner")

	// ErrUnknownStep — код шага не зарегистрирован в реестре.
	ErrUnknownStep = errors.New("unknown step code")

	// ErrIncomplete — к шагу агрегации собраны не все идентификаторы.
	ErrIncomplete = errors.New("workflow context is incomplete")
)

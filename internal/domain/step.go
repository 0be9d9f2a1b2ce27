package domain

// DataFlow — декларативное описание зависимостей шага по данным.
//
// Списки In/Out — документация для UI и спецификации сценария,
// они не исполняются: фактическая проверка предусловий живёт
// внутри функций шагов.
type DataFlow struct {
	// In — ключи контекста, которые шаг читает.
	In []string `json:"in"`

	// Out — ключи контекста, которые шаг записывает.
	Out []string `json:"out"`
}

// APISpec — иллюстративное описание вызова бэкенда для шага.
type APISpec struct {
	// Method — HTTP-метод.
	Method string `json:"method"`

	// Path — путь относительно базового префикса бэкенда.
	Path string `json:"path"`

	// SampleBody — пример тела запроса (для отображения).
	SampleBody map[string]any `json:"sample_body,omitempty"`
}

// StepDefinition — статическое описание шага сценария.
//
// Определения создаются один раз при старте процесса и дальше
// не изменяются. Каждому коду соответствует ровно одна функция
// шага в реестре workflow.
type StepDefinition struct {
	// Code — уникальный код шага ("B1", "C3", …).
	Code string `json:"code"`

	// Title — короткое название для отображения.
	Title string `json:"title"`

	// Actor — роль, от имени которой шаг выполняет запросы.
	Actor Role `json:"actor"`

	// Description — назначение шага.
	Description string `json:"description"`

	// DataFlow — декларируемые зависимости по данным.
	DataFlow DataFlow `json:"data_flow"`

	// API — иллюстративное описание вызова бэкенда, если есть.
	API *APISpec `json:"api,omitempty"`
}

package domain

import "time"

// LogType — тип записи журнала.
type LogType string

// Типы записей.
const (
	// LogInfo — информационное сообщение шага.
	LogInfo LogType = "info"

	// LogSuccess — успешное завершение шага или прогона.
	LogSuccess LogType = "success"

	// LogError — ошибка попытки запроса, шага или прогона.
	LogError LogType = "error"

	// LogRequest — исходящий HTTP-запрос адаптера.
	LogRequest LogType = "request"

	// LogResponse — успешный ответ бэкенда.
	LogResponse LogType = "response"
)

// LogEntry — одна запись журнала прогона.
//
// Журнал append-only: записи не изменяются и не переупорядочиваются
// после добавления. Порядок — хронологический порядок эмиссии.
type LogEntry struct {
	// Time — момент добавления записи.
	Time time.Time `json:"time"`

	// Actor — роль, от имени которой выполнялось действие.
	Actor Role `json:"actor"`

	// StepCode — код шага ("B1", "C3", …) либо "API" для записей
	// транспортного адаптера вне контекста конкретного шага.
	StepCode string `json:"step_code"`

	// Summary — короткое человекочитаемое описание.
	Summary string `json:"summary"`

	// Type — классификация записи.
	Type LogType `json:"type"`

	// Extracted — значения, извлечённые шагом из ответа бэкенда.
	Extracted map[string]any `json:"extracted,omitempty"`

	// Forwarded — значения, переданные шагом в общий контекст.
	Forwarded map[string]any `json:"forwarded,omitempty"`
}

// Recorder — приёмник записей журнала.
//
// Реализуется оркестратором; транспортный адаптер и шаги пишут
// через этот интерфейс, не зная о хранилище журнала.
type Recorder interface {
	Append(entry LogEntry)
}

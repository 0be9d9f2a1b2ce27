package domain

// StepStatus — статус выполнения шага сценария.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCESS
//	                  ↘ ERROR
//
// Шаг в статусе RUNNING нельзя запустить повторно. Завершённый шаг
// возвращается в PENDING только через reset либо переходит в RUNNING
// при ручном перезапуске.
type StepStatus string

const (
	// StepStatusPending — шаг ещё не запускался (или после reset).
	StepStatusPending StepStatus = "PENDING"

	// StepStatusRunning — шаг выполняется.
	StepStatusRunning StepStatus = "RUNNING"

	// StepStatusSuccess — шаг завершился успешно.
	StepStatusSuccess StepStatus = "SUCCESS"

	// StepStatusError — шаг завершился ошибкой.
	StepStatusError StepStatus = "ERROR"
)

// IsTerminal возвращает true, если статус финальный.
func (s StepStatus) IsTerminal() bool {
	return s == StepStatusSuccess || s == StepStatusError
}

// CanTransition проверяет допустимость перехода s → to.
// Переход в PENDING разрешён из любого статуса — это reset.
func (s StepStatus) CanTransition(to StepStatus) bool {
	if to == StepStatusPending {
		return true
	}
	switch s {
	case "", StepStatusPending:
		return to == StepStatusRunning
	case StepStatusRunning:
		return to == StepStatusSuccess || to == StepStatusError
	default:
		// SUCCESS и ERROR допускают повторный RUNNING:
		// ручной перезапуск отдельного шага.
		return to == StepStatusRunning
	}
}

// RunStatus — статус полного прогона сценария.
type RunStatus string

const (
	// RunStatusRunning — прогон в процессе выполнения.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusSucceeded — все шаги завершились успешно.
	RunStatusSucceeded RunStatus = "SUCCEEDED"

	// RunStatusFailed — прогон остановлен ошибкой шага.
	RunStatusFailed RunStatus = "FAILED"

	// RunStatusCancelled — прогон отменён пользователем.
	RunStatusCancelled RunStatus = "CANCELLED"
)

// IsTerminal возвращает true, если статус финальный.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

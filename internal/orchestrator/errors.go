package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrRunInProgress — попытка запуска, пока прогон ещё выполняется.
	ErrRunInProgress = errors.New("run already in progress")

	// ErrNotRunning — отмена или ожидание при отсутствии активного прогона.
	ErrNotRunning = errors.New("no run in progress")

	// ErrNotBootstrapped — запуск без подготовленных сессий акторов.
	ErrNotBootstrapped = errors.New("sessions not bootstrapped")

	// ErrBootstrap — не удалось подготовить сессии ни через
	// /users/by-role, ни через dev-login.
	ErrBootstrap = errors.New("bootstrap failed")

	// ErrInvalidTransition — недопустимый переход статуса шага.
	ErrInvalidTransition = errors.New("invalid step status transition")
)

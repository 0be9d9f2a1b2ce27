// Package orchestrator выполняет сценарий развёртывания крана.
//
// Orchestrator владеет состоянием одного прогона: общим контекстом,
// статусами шагов и append-only журналом. Шаги выполняются строго
// последовательно; ошибка шага останавливает прогон. Отдельные шаги
// можно перезапускать вручную между прогонами.
package orchestrator

// Package domain содержит базовые типы E2E-сценария:
// роли и сессии акторов, статусы шагов и прогонов,
// записи журнала и статические определения шагов.
//
// Пакет не имеет зависимостей от других internal-пакетов —
// все остальные слои (gateway, workflow, orchestrator, api)
// строятся поверх него.
package domain

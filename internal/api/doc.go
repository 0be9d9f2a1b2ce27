// Package api реализует REST API консоли.
//
// Консоль отдаёт определение сценария, состояние и журнал текущего
// прогона, принимает команды запуска, reset и отмены, а также
// проксирует каталожные списки бэкенда (владельцы, краны, модели).
//
// Формат ответов:
//   - Успех: {"data": ...}
//   - Ошибка: {"error": {"code": "...", "message": "..."}}
package api

// Package workflow содержит бизнес-сценарий crane-safety:
// общий контекст прогона, функции девяти шагов и статические
// определения шагов.
//
// Каждая функция шага:
//   - явно проверяет предусловия (сессии акторов, идентификаторы
//     предыдущих шагов) до любого сетевого вызова
//   - детерминированно строит запрос из контекста и вычисленных
//     значений (окна дат относительно «сегодня»)
//   - извлекает из ответа ровно один идентификатор и считает
//     его отсутствие в 2xx-ответе ошибкой
//
// Шаг C3 — единственный с особой обработкой отказа: 409 на
// создание assignment считается восстановимым, идентификатор
// существующего assignment извлекается из тела конфликта.
package workflow

// Package gateway — транспортный адаптер к бэкенду crane-safety.
//
// Выполняет HTTP-вызовы от имени именованного актора:
//   - подставляет учётные данные актора (bearer-токен, X-User-ID, X-Org-ID)
//   - пишет в журнал запись на каждый запрос, ответ и неудачную попытку
//   - повторяет неудачные вызовы с фиксированной задержкой
//
// Политика retry намеренно простая: фиксированное число попыток,
// фиксированная пауза, повтор на любую ошибку включая 4xx/5xx.
// Это позволяет шагу C3 восстановиться из 409 после исчерпания
// попыток — конфликтный ответ доступен в *RequestError.
//
// Поверх адаптера пакет даёт типизированные операции бэкенда:
// login, bootstrap сессий, сброс транзакционного состояния
// и списки каталога (owners, cranes, requests, crane models).
package gateway

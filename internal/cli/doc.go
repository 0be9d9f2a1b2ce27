// Package cli реализует команды craneguard-cli.
//
// CLI работает поверх REST API консоли и не обращается к бэкенду
// напрямую. Вывод — таблицы через tabwriter либо JSON (--json).
package cli

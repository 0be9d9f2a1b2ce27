// Package events публикует события прогона в RabbitMQ.
//
// Консоль — единственный издатель; внешние системы (дашборды,
// аудит) подписываются на topic-exchange craneguard.events.
// Публикация best-effort: недоступный брокер не влияет на прогон.
package events

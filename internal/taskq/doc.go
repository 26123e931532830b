// Package taskq предоставляет инфраструктуру очередей задач поверх RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - router.go     — назначение очереди по имени задачи (longest prefix)
//   - publisher.go  — публикация work units и dead letters
//   - consumer.go   — потребление work units из очередей
//
// Exchanges:
//   - paycore.tasks — work units, routing key = имя очереди
//   - paycore.dlq   — dead letters
//
// Очереди задач привязаны к DLX: nack(requeue=false) уводит
// сообщение в dlq.tasks.
package taskq

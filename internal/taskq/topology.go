package taskq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// Обменники.
const (
	ExchangeTasks Exchange = "paycore.tasks"
	ExchangeDLQ   Exchange = "paycore.dlq"
)

// Очереди задач. Routing key совпадает с именем очереди:
// обменник direct, Router выбирает очередь по имени задачи.
const (
	QueuePayments  Queue = "tasks.payments"
	QueueFraud     Queue = "tasks.fraud"
	QueueAnalytics Queue = "tasks.analytics"
	QueueNotify    Queue = "tasks.notify"
	QueueDefault   Queue = "tasks.default"
	QueueDLQ       Queue = "dlq.tasks"
)

// taskQueues — все очереди задач (без DLQ).
var taskQueues = []Queue{
	QueuePayments,
	QueueFraud,
	QueueAnalytics,
	QueueNotify,
	QueueDefault,
}

// SetupTopology объявляет обменники, очереди и привязки.
// Идемпотентно: повторный вызов на существующей топологии безопасен.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		return bindQueues(ch)
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	for _, ex := range []Exchange{ExchangeTasks, ExchangeDLQ} {
		err := ch.ExchangeDeclare(
			string(ex), // name
			"direct",   // type
			true,       // durable
			false,      // auto-deleted
			false,      // internal
			false,      // no-wait
			nil,        // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex, err)
		}
	}
	return nil
}

// declareQueues создаёт очереди задач и DLQ.
func declareQueues(ch *amqp.Channel) error {
	// Все очереди задач получают DLX: nack(requeue=false)
	// отправляет сообщение в dlq.tasks без участия приложения
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(QueueDLQ),
	}

	for _, q := range taskQueues {
		_, err := ch.QueueDeclare(
			string(q), // name
			true,      // durable
			false,     // delete when unused
			false,     // exclusive
			false,     // no-wait
			dlqArgs,   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	// Сама DLQ — без аргументов
	if _, err := ch.QueueDeclare(string(QueueDLQ), true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", QueueDLQ, err)
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
// Routing key каждой очереди — её собственное имя.
func bindQueues(ch *amqp.Channel) error {
	for _, q := range taskQueues {
		if err := ch.QueueBind(string(q), string(q), string(ExchangeTasks), false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", q, ExchangeTasks, err)
		}
	}

	if err := ch.QueueBind(string(QueueDLQ), string(QueueDLQ), string(ExchangeDLQ), false, nil); err != nil {
		return fmt.Errorf("bind queue %s to %s: %w", QueueDLQ, ExchangeDLQ, err)
	}

	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Paycore RabbitMQ Topology:

    paycore.tasks (direct)
    ├── tasks.payments  [routing: tasks.payments]
    ├── tasks.fraud     [routing: tasks.fraud]
    ├── tasks.analytics [routing: tasks.analytics]
    ├── tasks.notify    [routing: tasks.notify]
    └── tasks.default   [routing: tasks.default]
            Consumer: Worker
            DLX: paycore.dlq → dlq.tasks

    paycore.dlq (direct)
    └── dlq.tasks [routing: dlq.tasks]
            Manual processing
  `
}

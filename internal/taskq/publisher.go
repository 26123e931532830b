package taskq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shakhov/paycore/internal/domain"
	"github.com/shakhov/paycore/internal/telemetry"
)

// Publisher публикует work units и dead letters в RabbitMQ.
//
// Тело сообщения — JSON сериализация domain.WorkUnit (или
// domain.DeadLetter для DLQ). Очередь назначается Router-ом при
// каждой публикации: retry того же unit может уйти в другую
// очередь, если таблица маршрутов изменилась между деплоями.
type Publisher struct {
	conn    *Connection
	router  *Router
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// NewPublisher создаёт Publisher с заданным Router.
func NewPublisher(conn *Connection, router *Router, logger *slog.Logger, metrics *telemetry.Metrics) *Publisher {
	if router == nil {
		router = DefaultRouter()
	}

	return &Publisher{
		conn:    conn,
		router:  router,
		logger:  logger,
		metrics: metrics,
	}
}

// EnqueueUnit публикует work unit в очередь, назначенную Router-ом.
// Возвращает очередь назначения. Retry публикуется тем же методом —
// unit с RetryCount > 0 уходит в хвост своей очереди.
func (p *Publisher) EnqueueUnit(ctx context.Context, unit *domain.WorkUnit) (Queue, error) {
	queue := p.router.AssignQueue(unit.TaskName)

	body, err := json.Marshal(unit)
	if err != nil {
		return queue, fmt.Errorf("marshal work unit: %w", err)
	}

	if err := p.publish(ctx, ExchangeTasks, queue, unit.ID.String(), unit.CorrelationID, body); err != nil {
		return queue, err
	}

	if p.metrics != nil {
		p.metrics.QueueDepthHint.WithLabelValues(string(queue)).Inc()
	}

	p.logger.Debug("work unit enqueued",
		"unit_id", unit.ID,
		"task", unit.TaskName,
		"queue", queue,
		"retry_count", unit.RetryCount,
	)

	return queue, nil
}

// PublishDeadLetter публикует dead letter в DLQ.
func (p *Publisher) PublishDeadLetter(ctx context.Context, dl *domain.DeadLetter) error {
	body, err := json.Marshal(dl)
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}

	if err := p.publish(ctx, ExchangeDLQ, QueueDLQ, dl.ID.String(), dl.CorrelationID, body); err != nil {
		return err
	}

	p.logger.Info("dead letter published",
		"unit_id", dl.UnitID,
		"task", dl.TaskName,
		"attempts", dl.Attempts,
		"reason", dl.Reason,
	)

	return nil
}

// publish отправляет тело в обменник с routing key очереди.
func (p *Publisher) publish(ctx context.Context, exchange Exchange, queue Queue, messageID, correlationID string, body []byte) error {
	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange), // exchange
			string(queue),    // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:   "application/json",
				DeliveryMode:  amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:     messageID,
				CorrelationId: correlationID,
				Body:          body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, queue, err)
		}
		return nil
	})
}

package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shakhov/paycore/internal/domain"
	"github.com/shakhov/paycore/internal/fault"
	"github.com/shakhov/paycore/internal/taskq"
	"github.com/shakhov/paycore/internal/telemetry"
)

// handleDelivery обрабатывает один доставленный work unit.
//
// Возвращённая ошибка означает инфраструктурный сбой (consumer сделает
// nack с requeue); доменный исход — успех, retry или dead letter —
// всегда завершается Ack.
func (w *Worker) handleDelivery(ctx context.Context, d *taskq.Delivery) error {
	unit := d.Unit

	if err := w.processUnit(ctx, &unit); err != nil {
		return err
	}

	return d.Ack()
}

// processUnit выполняет одну попытку work unit и решает его судьбу.
func (w *Worker) processUnit(ctx context.Context, unit *domain.WorkUnit) error {
	logger := telemetry.WithUnit(w.logger, unit.ID.String(), unit.TaskName)
	logger = telemetry.WithCorrelationID(logger, unit.CorrelationID)

	// Терминальный unit в очереди — следствие повторной доставки
	// после сбоя; выполнять его второй раз нельзя
	if unit.IsFinished() {
		logger.Warn("skipping unit in terminal status", "status", unit.Status)
		return nil
	}

	unit.MarkExecuting()
	w.persistUnit(ctx, unit, logger)

	logger.Info("unit started", "attempt", unit.Attempt())

	result, execErr := w.executeUnit(ctx, unit)

	if execErr == nil {
		unit.MarkSucceeded(result)
		w.persistUnit(ctx, unit, logger)

		if w.metrics != nil {
			w.metrics.TaskAttempts.WithLabelValues(unit.TaskName, "success").Inc()
		}

		logger.Info("unit succeeded", "attempt", unit.Attempt())
		return nil
	}

	unit.MarkFailed(execErr.Error())

	if w.metrics != nil {
		w.metrics.TaskAttempts.WithLabelValues(unit.TaskName, "failure").Inc()
	}

	logger.Warn("unit attempt failed",
		"attempt", unit.Attempt(),
		"kind", fault.KindOf(execErr),
		"error", execErr,
	)

	if fault.IsRetryable(execErr) && unit.CanRetry() {
		return w.retryUnit(ctx, unit, logger)
	}

	return w.deadLetterUnit(ctx, unit, logger)
}

// executeUnit резолвит задачу в tool registry и выполняет её через bridge.
func (w *Worker) executeUnit(ctx context.Context, unit *domain.WorkUnit) (map[string]any, error) {
	tool, err := w.registry.Resolve(unit.TaskName)
	if err != nil {
		// Неизвестная задача non-retryable: registry не изменится
		// между попытками одного процесса
		return nil, fault.Wrap(fault.KindToolNotFound, err)
	}

	if err := tool.Input.Validate(unit.Args); err != nil {
		return nil, err
	}

	// Свежий execution scope на каждую попытку
	tc := w.newContext(unit.CorrelationID)

	return w.bridge.Run(ctx, tool.Name, func(ctx context.Context) (map[string]any, error) {
		return tool.Handler(ctx, tc, unit.Args)
	})
}

// retryUnit выжидает backoff и переиздаёт unit в хвост его очереди.
func (w *Worker) retryUnit(ctx context.Context, unit *domain.WorkUnit, logger *slog.Logger) error {
	state := w.policy.StateFor(unit)

	logger.Debug("retrying unit",
		"attempt", state.Attempt,
		"backoff", state.BackoffDelay,
	)

	select {
	case <-time.After(state.BackoffDelay):
	case <-ctx.Done():
		// Остановка во время backoff: unit вернётся в очередь через nack
		return ctx.Err()
	}

	unit.PrepareRetry()
	w.persistUnit(ctx, unit, logger)

	if w.metrics != nil {
		w.metrics.TaskAttempts.WithLabelValues(unit.TaskName, "retry").Inc()
	}

	if _, err := w.publisher.EnqueueUnit(ctx, unit); err != nil {
		return fmt.Errorf("republish unit: %w", err)
	}

	return nil
}

// deadLetterUnit фиксирует dead letter ровно один раз: статус, запись
// в хранилище, публикация в DLQ и оповещение.
func (w *Worker) deadLetterUnit(ctx context.Context, unit *domain.WorkUnit, logger *slog.Logger) error {
	unit.MarkDeadLettered()
	w.persistUnit(ctx, unit, logger)

	dl := domain.NewDeadLetter(unit)

	if w.deadLetters != nil {
		if err := w.deadLetters.Record(ctx, dl); err != nil {
			logger.Error("failed to record dead letter", "error", err)
		}
	}

	// Ошибки ниже не возвращаем: unit уже в терминальном статусе,
	// nack с requeue привёл бы к повторному выполнению
	if err := w.publisher.PublishDeadLetter(ctx, dl); err != nil {
		logger.Error("failed to publish dead letter", "error", err)
	}

	if w.metrics != nil {
		w.metrics.DeadLetters.WithLabelValues(unit.TaskName).Inc()
	}

	w.alertDeadLetter(ctx, dl, logger)

	logger.Warn("unit dead-lettered",
		"attempts", dl.Attempts,
		"reason", dl.Reason,
	)

	return nil
}

// alertDeadLetter отправляет оповещение о dead letter.
func (w *Worker) alertDeadLetter(ctx context.Context, dl *domain.DeadLetter, logger *slog.Logger) {
	if w.notifications == nil {
		return
	}

	msg := fmt.Sprintf("task %s dead-lettered after %d attempts: %s",
		dl.TaskName, dl.Attempts, dl.Reason)

	if err := w.notifications.Send(ctx, "ops", "oncall", msg); err != nil {
		logger.Error("failed to send dead letter alert", "error", err)
	}
}

// persistUnit сохраняет unit, если хранилище подключено.
func (w *Worker) persistUnit(ctx context.Context, unit *domain.WorkUnit, logger *slog.Logger) {
	if w.units == nil {
		return
	}

	if err := w.units.Save(ctx, unit); err != nil {
		// Очередь остаётся источником истины; запись в БД — best effort
		logger.Warn("failed to persist unit", "error", err)
	}
}

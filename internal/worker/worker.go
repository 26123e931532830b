package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/shakhov/paycore/internal/bridge"
	"github.com/shakhov/paycore/internal/domain"
	"github.com/shakhov/paycore/internal/rpc"
	"github.com/shakhov/paycore/internal/services"
	"github.com/shakhov/paycore/internal/taskq"
	"github.com/shakhov/paycore/internal/telemetry"
)

// Default configuration values.
const (
	defaultPrefetch = 5
)

// UnitPublisher — публикация work units и dead letters.
// Реализуется taskq.Publisher.
type UnitPublisher interface {
	EnqueueUnit(ctx context.Context, unit *domain.WorkUnit) (taskq.Queue, error)
	PublishDeadLetter(ctx context.Context, dl *domain.DeadLetter) error
}

// UnitStore — персистентность work units. Реализуется repo.WorkUnitRepo.
type UnitStore interface {
	Save(ctx context.Context, unit *domain.WorkUnit) error
}

// DeadLetterStore — персистентность dead letters. Реализуется repo.DeadLetterRepo.
type DeadLetterStore interface {
	Record(ctx context.Context, dl *domain.DeadLetter) error
}

// Worker выполняет work units из очередей задач.
//
// Worker — stateless компонент системы, который:
//   - Потребляет work units из очередей, назначенных Router-ом
//   - Резолвит имя задачи в том же tool registry, что и RPC-диспетчер
//   - Выполняет tool через execution bridge (изолированный scope)
//   - Реализует retry с exponential backoff: неудачный unit
//     переиздаётся в хвост своей очереди
//   - Исчерпанный или non-retryable unit уводит в dead letter
//     ровно один раз
//
// Workers масштабируются горизонтально — несколько экземпляров
// могут потреблять из одних очередей.
type Worker struct {
	registry *rpc.Registry
	bridge   *bridge.Bridge

	publisher UnitPublisher
	conn      *taskq.Connection

	// Персистентность (опционально; nil — только очередь)
	units       UnitStore
	deadLetters DeadLetterStore

	notifications services.NotificationService
	newContext    rpc.ToolContextFactory

	policy   domain.RetryPolicy
	queues   []taskq.Queue
	prefetch int

	metrics *telemetry.Metrics
	logger  *slog.Logger

	// Lifecycle
	consumers  []*taskq.Consumer
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	// Registry — tool registry (общий с RPC-диспетчером).
	Registry *rpc.Registry

	// Bridge — execution bridge (общий с RPC-диспетчером).
	Bridge *bridge.Bridge

	// Publisher — для republish при retry и публикации dead letters.
	Publisher UnitPublisher

	// Conn — соединение с брокером.
	Conn *taskq.Connection

	// Units — хранилище units (опционально).
	Units UnitStore

	// DeadLetters — хранилище dead letters (опционально).
	DeadLetters DeadLetterStore

	// Notifications — канал оповещений о dead letters (опционально).
	Notifications services.NotificationService

	// NewContext — фабрика execution scope для tool-вызовов.
	NewContext rpc.ToolContextFactory

	// Policy — политика retry (default: DefaultRetryPolicy).
	Policy domain.RetryPolicy

	// Queues — очереди для потребления (default: все очереди DefaultRouter).
	Queues []taskq.Queue

	// Prefetch — неподтверждённые сообщения на consumer (default: 5).
	Prefetch int

	// Metrics
	Metrics *telemetry.Metrics

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	policy := cfg.Policy
	if policy.MaxRetries == 0 && policy.BaseDelay == 0 {
		policy = domain.DefaultRetryPolicy()
	}

	queues := cfg.Queues
	if len(queues) == 0 {
		queues = taskq.DefaultRouter().Queues()
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	return &Worker{
		registry:      cfg.Registry,
		bridge:        cfg.Bridge,
		publisher:     cfg.Publisher,
		conn:          cfg.Conn,
		units:         cfg.Units,
		deadLetters:   cfg.DeadLetters,
		notifications: cfg.Notifications,
		newContext:    cfg.NewContext,
		policy:        policy,
		queues:        queues,
		prefetch:      prefetch,
		metrics:       cfg.Metrics,
		logger:        logger,
	}
}

// Start запускает Worker: по одному consumer на каждую очередь.
func (w *Worker) Start(ctx context.Context) error {
	if w.registry == nil {
		return ErrRegistryRequired
	}
	if w.bridge == nil {
		return ErrBridgeRequired
	}
	if w.publisher == nil {
		return ErrPublisherRequired
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"queues", w.queues,
		"prefetch", w.prefetch,
		"max_retries", w.policy.MaxRetries,
	)

	for _, queue := range w.queues {
		consumer := taskq.NewConsumer(w.conn, w.logger, taskq.ConsumerConfig{
			Queue:    queue,
			Handler:  w.handleDelivery,
			Prefetch: w.prefetch,
		})
		w.consumers = append(w.consumers, consumer)

		w.wg.Add(1)
		go func(c *taskq.Consumer, q taskq.Queue) {
			defer w.wg.Done()
			if err := c.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("consumer error", "queue", q, "error", err)
			}
		}(consumer, queue)
	}

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}

	for _, c := range w.consumers {
		c.Stop()
	}

	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}

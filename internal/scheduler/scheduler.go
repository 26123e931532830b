package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shakhov/paycore/internal/domain"
	"github.com/shakhov/paycore/internal/taskq"
)

// defaultTickInterval — период проверки расписания.
const defaultTickInterval = time.Second

// Enqueuer — постановка work units в очередь. Реализуется taskq.Publisher.
type Enqueuer interface {
	EnqueueUnit(ctx context.Context, unit *domain.WorkUnit) (taskq.Queue, error)
}

// Entry — одна строка статического расписания.
//
// Задаётся либо Every (интервал), либо CronExpr — ровно одно из двух.
type Entry struct {
	// TaskName — имя задачи для постановки в очередь.
	TaskName string

	// Args — аргументы создаваемых work units.
	Args map[string]any

	// Every — интервал между срабатываниями.
	Every time.Duration

	// CronExpr — cron-выражение (стандартные 5 полей).
	CronExpr string

	// MaxRetries — retry-бюджет создаваемых units
	// (0 — берётся из политики по умолчанию).
	MaxRetries int
}

// entryState — Entry с вычисленным временем следующего срабатывания.
type entryState struct {
	Entry
	nextDueAt time.Time
}

// Scheduler периодически ставит задачи из статического расписания
// в очередь.
//
// Каждое срабатывание создаёт ровно один work unit. Backfill не
// выполняется: если процесс был выключен несколько интервалов,
// после старта entry сработает один раз, а next_due_at уйдёт
// в будущее от текущего момента.
//
// Scheduler не реализует leader election: при нескольких экземплярах
// его обеспечивают снаружи (pg_try_advisory_lock в main).
type Scheduler struct {
	entries      []entryState
	publisher    Enqueuer
	maxRetries   int
	tickInterval time.Duration
	logger       *slog.Logger
}

// Config — конфигурация Scheduler.
type Config struct {
	// Entries — статическое расписание.
	Entries []Entry

	// Publisher — постановка units в очередь.
	Publisher Enqueuer

	// MaxRetries — retry-бюджет по умолчанию для создаваемых units.
	MaxRetries int

	// TickInterval — период проверки расписания (default: 1s).
	TickInterval time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт Scheduler и вычисляет первые времена срабатывания.
//
// Интервальные entries впервые срабатывают через Every после старта,
// cron-entries — в ближайшее совпадение выражения.
func New(cfg Config) (*Scheduler, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tickInterval := cfg.TickInterval
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = domain.DefaultRetryPolicy().MaxRetries
	}

	now := time.Now()
	entries := make([]entryState, 0, len(cfg.Entries))
	for _, e := range cfg.Entries {
		if err := validateEntry(e); err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.TaskName, err)
		}

		next, err := nextDue(e, now)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.TaskName, err)
		}

		entries = append(entries, entryState{Entry: e, nextDueAt: next})
	}

	return &Scheduler{
		entries:      entries,
		publisher:    cfg.Publisher,
		maxRetries:   maxRetries,
		tickInterval: tickInterval,
		logger:       logger,
	}, nil
}

// Run запускает цикл планировщика. Блокируется до отмены контекста.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler",
		"entries", len(s.entries),
		"tick_interval", s.tickInterval,
	)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx, time.Now())
		}
	}
}

// Tick выполняет один тик: ставит в очередь все due entries.
//
// Ошибка одного entry не блокирует остальные. Next due всегда
// вычисляется от now — пропущенные срабатывания не навёрстываются.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	var fired int

	for i := range s.entries {
		e := &s.entries[i]
		if e.nextDueAt.After(now) {
			continue
		}

		if err := s.fire(ctx, e); err != nil {
			s.logger.Error("failed to enqueue scheduled task",
				"task", e.TaskName,
				"error", err,
			)
			// Next due всё равно сдвигаем: иначе сломанный entry
			// будет молотить очередь каждый тик
		} else {
			fired++
		}

		next, err := nextDue(e.Entry, now)
		if err != nil {
			// Выражение было валидно при создании; сюда не попадаем
			s.logger.Error("failed to advance schedule entry",
				"task", e.TaskName,
				"error", err,
			)
			continue
		}
		e.nextDueAt = next
	}

	if fired > 0 {
		s.logger.Debug("scheduler tick completed", "fired", fired)
	}
}

// fire создаёт и ставит в очередь ровно один work unit для entry.
func (s *Scheduler) fire(ctx context.Context, e *entryState) error {
	maxRetries := e.MaxRetries
	if maxRetries <= 0 {
		maxRetries = s.maxRetries
	}

	unit := domain.NewWorkUnit(e.TaskName, e.Args, maxRetries)

	queue, err := s.publisher.EnqueueUnit(ctx, unit)
	if err != nil {
		return err
	}

	s.logger.Info("scheduled task enqueued",
		"task", e.TaskName,
		"unit_id", unit.ID,
		"queue", queue,
	)

	return nil
}

// NextDueAt возвращает время следующего срабатывания задачи.
// Вторым значением — false, если задачи нет в расписании.
func (s *Scheduler) NextDueAt(taskName string) (time.Time, bool) {
	for i := range s.entries {
		if s.entries[i].TaskName == taskName {
			return s.entries[i].nextDueAt, true
		}
	}
	return time.Time{}, false
}

// DefaultEntries — расписание paycore по умолчанию.
func DefaultEntries() []Entry {
	return []Entry{
		// Ежедневный отчёт о выручке в 03:00
		{
			TaskName: "analytics.revenue_report",
			Args:     map[string]any{"period": "daily"},
			CronExpr: "0 3 * * *",
		},
		// Напоминания об оплате раз в час
		{
			TaskName: "notify.payment_reminders",
			Every:    time.Hour,
		},
	}
}

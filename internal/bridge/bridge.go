package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/shakhov/paycore/internal/fault"
	"github.com/shakhov/paycore/internal/telemetry"
)

// Work — единица работы, выполняемая мостом.
// Возвращает результат либо ошибку (желательно классифицированную как fault).
type Work func(ctx context.Context) (map[string]any, error)

// Bridge выполняет единицы работы в изолированных execution scope'ах.
//
// На каждый вызов Run создаётся ровно один scope, который никогда
// не переиспользуется между вызовами. Scope освобождается на любом
// пути выхода: успех, ошибка, panic.
//
// Если свободных scope-слотов нет (исчерпание ресурсов), Run возвращает
// ошибку класса Bridge — решение о повторе принимает retry policy
// уровнем выше, сам мост не повторяет.
type Bridge struct {
	logger *slog.Logger

	// slots ограничивает количество одновременных scope'ов.
	// nil — без ограничения.
	slots chan struct{}

	// acquireTimeout — сколько ждать свободный слот.
	acquireTimeout time.Duration

	active atomic.Int64
}

// Config — конфигурация Bridge.
type Config struct {
	// MaxScopes — максимум одновременных execution scope'ов
	// (0 — без ограничения).
	MaxScopes int

	// AcquireTimeout — время ожидания свободного слота (default: 5s).
	AcquireTimeout time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт Bridge.
func New(cfg Config) *Bridge {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	acquireTimeout := cfg.AcquireTimeout
	if acquireTimeout <= 0 {
		acquireTimeout = 5 * time.Second
	}

	var slots chan struct{}
	if cfg.MaxScopes > 0 {
		slots = make(chan struct{}, cfg.MaxScopes)
	}

	return &Bridge{
		logger:         logger,
		slots:          slots,
		acquireTimeout: acquireTimeout,
	}
}

// scope — изолированный контекст одного выполнения.
type scope struct {
	id      uuid.UUID
	started time.Time
	release func()
}

// acquire создаёт scope для одного вызова.
func (b *Bridge) acquire(ctx context.Context) (*scope, error) {
	if b.slots != nil {
		timer := time.NewTimer(b.acquireTimeout)
		defer timer.Stop()

		select {
		case b.slots <- struct{}{}:
		case <-timer.C:
			return nil, fault.New(fault.KindBridge, "no execution scope available after %v", b.acquireTimeout)
		case <-ctx.Done():
			return nil, fault.Wrap(fault.KindBridge, ctx.Err())
		}
	}

	b.active.Add(1)

	s := &scope{
		id:      uuid.New(),
		started: time.Now(),
	}
	s.release = func() {
		b.active.Add(-1)
		if b.slots != nil {
			<-b.slots
		}
	}
	return s, nil
}

// Run выполняет единицу работы до завершения в собственном scope.
//
// Caller видит обычную блокирующую семантику: Run возвращается, когда
// работа завершена. Panic внутри work перехватывается и превращается
// в классифицированную ошибку — за границу моста panic не выходит.
func (b *Bridge) Run(ctx context.Context, name string, work Work) (map[string]any, error) {
	s, err := b.acquire(ctx)
	if err != nil {
		b.logger.Error("failed to acquire execution scope", "work", name, "error", err)
		return nil, err
	}
	defer s.release()

	scopeLogger := b.logger.With("scope_id", s.id, "work", name)
	runCtx := telemetry.WithLogger(ctx, scopeLogger)

	type outcome struct {
		result map[string]any
		err    error
	}

	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				scopeLogger.Error("work panicked",
					"panic", r,
					"stack", string(debug.Stack()),
				)
				done <- outcome{err: fault.New(fault.KindHandler, "panic: %v", r)}
			}
		}()

		result, err := work(runCtx)
		done <- outcome{result: result, err: err}
	}()

	// Единица работы выполняется до конца даже при отмене ctx:
	// mid-flight cancellation для work units не предусмотрена,
	// goroutine выше доставит результат в буферизованный канал.
	out := <-done

	if out.err != nil {
		return nil, classify(out.err)
	}
	return out.result, nil
}

// ActiveScopes возвращает текущее количество занятых scope'ов.
func (b *Bridge) ActiveScopes() int {
	return int(b.active.Load())
}

// classify гарантирует, что наружу уходит классифицированная ошибка.
func classify(err error) error {
	if f := fault.Wrap(fault.KindOf(err), err); f != nil {
		return f
	}
	return fmt.Errorf("unreachable: %w", err)
}

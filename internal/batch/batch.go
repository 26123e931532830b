package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/shakhov/paycore/internal/telemetry"
)

// defaultSubBatchSize — размер под-пачки. Ограничивает только память
// (количество одновременно запланированных goroutine), семантику
// обработки не меняет: ограничение параллелизма глобально для вызова.
const defaultSubBatchSize = 256

// Worker — обработчик одного элемента.
type Worker[I any] func(ctx context.Context, item I) error

// ItemError — ошибка обработки одного элемента.
type ItemError[I any] struct {
	Index int
	Item  I
	Err   error
}

// Result — итог обработки пачки.
// Инвариант: Processed + Failed == Total.
type Result[I any] struct {
	Total     int
	Processed int
	Failed    int
	Errors    []ItemError[I]
}

// Processor обрабатывает однородные коллекции с ограниченным
// параллелизмом.
//
// В любой момент выполняется не более MaxConcurrent worker-вызовов,
// независимо от размера пачки. Ошибка одного элемента фиксируется
// и не отменяет обработку остальных (partial failure).
type Processor struct {
	maxConcurrent int64
	subBatchSize  int
	metrics       *telemetry.Metrics
	logger        *slog.Logger
}

// Config — конфигурация Processor.
type Config struct {
	// MaxConcurrent — потолок одновременных worker-вызовов (default: 1).
	MaxConcurrent int

	// SubBatchSize — размер под-пачки (default: 256).
	SubBatchSize int

	// Metrics — опционально; заполняет gauge batch_in_flight.
	Metrics *telemetry.Metrics

	// Logger
	Logger *slog.Logger
}

// New создаёт Processor.
func New(cfg Config) *Processor {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	subBatchSize := cfg.SubBatchSize
	if subBatchSize <= 0 {
		subBatchSize = defaultSubBatchSize
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Processor{
		maxConcurrent: int64(maxConcurrent),
		subBatchSize:  subBatchSize,
		metrics:       cfg.Metrics,
		logger:        logger,
	}
}

// Run обрабатывает все элементы items через fn.
//
// Семафор создаётся на весь вызов: под-пачки ограничивают только
// количество одновременно запланированных goroutine, но суммарный
// параллелизм worker-вызовов никогда не превышает MaxConcurrent.
func Run[I any](ctx context.Context, p *Processor, items []I, fn Worker[I]) Result[I] {
	result := Result[I]{Total: len(items)}
	if len(items) == 0 {
		return result
	}

	sem := semaphore.NewWeighted(p.maxConcurrent)

	var mu sync.Mutex
	recordFailure := func(index int, item I, err error) {
		mu.Lock()
		defer mu.Unlock()
		result.Failed++
		result.Errors = append(result.Errors, ItemError[I]{Index: index, Item: item, Err: err})
	}
	recordSuccess := func() {
		mu.Lock()
		defer mu.Unlock()
		result.Processed++
	}

	for offset := 0; offset < len(items); offset += p.subBatchSize {
		end := min(offset+p.subBatchSize, len(items))

		var wg sync.WaitGroup
		for i := offset; i < end; i++ {
			if err := sem.Acquire(ctx, 1); err != nil {
				// Контекст отменён — оставшиеся элементы фиксируем как failed
				recordFailure(i, items[i], fmt.Errorf("acquire slot: %w", err))
				continue
			}

			wg.Add(1)
			go func(index int, item I) {
				defer wg.Done()
				defer sem.Release(1)

				if p.metrics != nil {
					p.metrics.BatchInFlight.Inc()
					defer p.metrics.BatchInFlight.Dec()
				}

				if err := runOne(ctx, p, index, item, fn); err != nil {
					recordFailure(index, item, err)
					return
				}
				recordSuccess()
			}(i, items[i])
		}
		wg.Wait()
	}

	return result
}

// runOne выполняет worker для одного элемента, перехватывая panic:
// падение одного элемента не должно ронять пачку.
func runOne[I any](ctx context.Context, p *Processor, index int, item I, fn Worker[I]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("batch item panicked",
				"index", index,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return fn(ctx, item)
}

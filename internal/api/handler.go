package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shakhov/paycore/internal/domain"
	"github.com/shakhov/paycore/internal/rpc"
	"github.com/shakhov/paycore/internal/taskq"
)

// Enqueuer — постановка work units в очередь. Реализуется taskq.Publisher.
type Enqueuer interface {
	EnqueueUnit(ctx context.Context, unit *domain.WorkUnit) (taskq.Queue, error)
}

// UnitReader — чтение work units. Реализуется repo.WorkUnitRepo.
type UnitReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkUnit, error)
}

// DeadLetterReader — чтение dead letters. Реализуется repo.DeadLetterRepo.
type DeadLetterReader interface {
	List(ctx context.Context, limit int) ([]domain.DeadLetter, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	dispatcher  *rpc.Dispatcher
	publisher   Enqueuer
	units       UnitReader
	deadLetters DeadLetterReader
	maxRetries  int
	logger      *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	// Dispatcher — JSON-RPC диспетчер tools/call.
	Dispatcher *rpc.Dispatcher

	// Publisher — постановка задач в очередь.
	Publisher Enqueuer

	// Units — чтение журнала units (опционально).
	Units UnitReader

	// DeadLetters — чтение dead letters (опционально).
	DeadLetters DeadLetterReader

	// MaxRetries — retry-бюджет по умолчанию для enqueue.
	MaxRetries int

	// Logger
	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = domain.DefaultRetryPolicy().MaxRetries
	}

	return &Handler{
		dispatcher:  cfg.Dispatcher,
		publisher:   cfg.Publisher,
		units:       cfg.Units,
		deadLetters: cfg.DeadLetters,
		maxRetries:  maxRetries,
		logger:      logger,
	}
}

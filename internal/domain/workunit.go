package domain

import (
	"time"

	"github.com/google/uuid"
)

// WorkUnit — атомарная единица фоновой работы.
//
// WorkUnit создаётся producer'ом (API, scheduler, другой task),
// маршрутизируется в очередь по TaskName и выполняется Worker'ом.
//
// Инвариант: RetryCount <= MaxRetries перед каждым выполнением.
// Превышение переводит unit в DEAD_LETTERED, после чего он
// не выполняется повторно.
type WorkUnit struct {
	// ID — уникальный идентификатор unit.
	ID uuid.UUID `json:"id"`

	// TaskName — имя задачи (ключ в tool registry и вход queue router'а).
	TaskName string `json:"task_name"`

	// Args — аргументы задачи, валидируются против input shape tool'а.
	Args map[string]any `json:"args,omitempty"`

	// CorrelationID — сквозной идентификатор для трассировки цепочки вызовов.
	CorrelationID string `json:"correlation_id"`

	// EnqueuedAt — время постановки в очередь.
	EnqueuedAt time.Time `json:"enqueued_at"`

	// RetryCount — количество выполненных повторов (0 для первой попытки).
	RetryCount int `json:"retry_count"`

	// MaxRetries — допустимое количество повторов после первой попытки.
	MaxRetries int `json:"max_retries"`

	// Status — текущий статус unit.
	Status UnitStatus `json:"status"`

	// Result — результат успешного выполнения.
	Result map[string]any `json:"result,omitempty"`

	// LastError — текст последней ошибки.
	LastError string `json:"last_error,omitempty"`

	// StartedAt — время начала последней попытки.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения (успех или dead letter).
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// NewWorkUnit создаёт unit в статусе PENDING.
func NewWorkUnit(taskName string, args map[string]any, maxRetries int) *WorkUnit {
	return &WorkUnit{
		ID:            uuid.New(),
		TaskName:      taskName,
		Args:          args,
		CorrelationID: uuid.New().String(),
		EnqueuedAt:    time.Now(),
		MaxRetries:    maxRetries,
		Status:        UnitStatusPending,
	}
}

// Attempt возвращает номер текущей попытки (начиная с 1).
func (u *WorkUnit) Attempt() int {
	return u.RetryCount + 1
}

// MarkExecuting переводит unit в статус EXECUTING.
func (u *WorkUnit) MarkExecuting() {
	now := time.Now()
	u.Status = UnitStatusExecuting
	u.StartedAt = &now
}

// MarkSucceeded переводит unit в статус SUCCEEDED с результатом.
func (u *WorkUnit) MarkSucceeded(result map[string]any) {
	now := time.Now()
	u.Status = UnitStatusSucceeded
	u.FinishedAt = &now
	u.Result = result
	u.LastError = ""
}

// MarkFailed фиксирует ошибку попытки.
func (u *WorkUnit) MarkFailed(errMsg string) {
	u.Status = UnitStatusFailed
	u.LastError = errMsg
}

// MarkDeadLettered переводит unit в конечный статус DEAD_LETTERED.
func (u *WorkUnit) MarkDeadLettered() {
	now := time.Now()
	u.Status = UnitStatusDeadLettered
	u.FinishedAt = &now
}

// PrepareRetry подготавливает unit к повторной постановке в очередь:
// инкрементирует RetryCount и возвращает в PENDING.
// Вызывается только когда CanRetry() == true.
func (u *WorkUnit) PrepareRetry() {
	u.RetryCount++
	u.Status = UnitStatusPending
	u.StartedAt = nil
	u.EnqueuedAt = time.Now()
}

// CanRetry проверяет, остались ли попытки.
func (u *WorkUnit) CanRetry() bool {
	return u.RetryCount < u.MaxRetries
}

// IsFinished возвращает true для конечных статусов.
func (u *WorkUnit) IsFinished() bool {
	return u.Status.IsTerminal()
}

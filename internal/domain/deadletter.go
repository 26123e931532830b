package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeadLetter — запись о unit, исчерпавшем retry-бюджет или упавшем
// с non-retryable ошибкой.
//
// Dead letters фиксируются ровно один раз и никогда не ставятся
// в очередь автоматически. Повторная отправка — только вручную.
type DeadLetter struct {
	// ID — идентификатор записи.
	ID uuid.UUID `json:"id"`

	// UnitID — идентификатор исходного work unit.
	UnitID uuid.UUID `json:"unit_id"`

	// TaskName — имя задачи.
	TaskName string `json:"task_name"`

	// Args — аргументы на момент последней попытки.
	Args map[string]any `json:"args,omitempty"`

	// CorrelationID — сквозной идентификатор.
	CorrelationID string `json:"correlation_id"`

	// Attempts — общее количество выполненных попыток.
	Attempts int `json:"attempts"`

	// Reason — текст последней ошибки.
	Reason string `json:"reason"`

	// DeadLetteredAt — время перевода в dead letter.
	DeadLetteredAt time.Time `json:"dead_lettered_at"`
}

// NewDeadLetter создаёт запись из unit.
func NewDeadLetter(u *WorkUnit) *DeadLetter {
	return &DeadLetter{
		ID:             uuid.New(),
		UnitID:         u.ID,
		TaskName:       u.TaskName,
		Args:           u.Args,
		CorrelationID:  u.CorrelationID,
		Attempts:       u.Attempt(),
		Reason:         u.LastError,
		DeadLetteredAt: time.Now(),
	}
}

package api

import (
	"time"

	"github.com/shakhov/paycore/internal/domain"
)

// EnqueueRequest — запрос на постановку задачи в очередь.
type EnqueueRequest struct {
	TaskName      string         `json:"task_name"`
	Args          map[string]any `json:"args,omitempty"`
	MaxRetries    *int           `json:"max_retries,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
}

// EnqueueResponse — подтверждение постановки задачи.
type EnqueueResponse struct {
	UnitID        string `json:"unit_id"`
	TaskName      string `json:"task_name"`
	Queue         string `json:"queue"`
	Status        string `json:"status"`
	CorrelationID string `json:"correlation_id"`
}

// UnitResponse — представление work unit в API.
type UnitResponse struct {
	ID            string         `json:"id"`
	TaskName      string         `json:"task_name"`
	Args          map[string]any `json:"args,omitempty"`
	CorrelationID string         `json:"correlation_id"`
	EnqueuedAt    time.Time      `json:"enqueued_at"`
	RetryCount    int            `json:"retry_count"`
	MaxRetries    int            `json:"max_retries"`
	Status        string         `json:"status"`
	Result        map[string]any `json:"result,omitempty"`
	LastError     string         `json:"last_error,omitempty"`
	StartedAt     *time.Time     `json:"started_at,omitempty"`
	FinishedAt    *time.Time     `json:"finished_at,omitempty"`
}

// UnitFromDomain конвертирует domain.WorkUnit в UnitResponse.
func UnitFromDomain(u domain.WorkUnit) UnitResponse {
	return UnitResponse{
		ID:            u.ID.String(),
		TaskName:      u.TaskName,
		Args:          u.Args,
		CorrelationID: u.CorrelationID,
		EnqueuedAt:    u.EnqueuedAt,
		RetryCount:    u.RetryCount,
		MaxRetries:    u.MaxRetries,
		Status:        string(u.Status),
		Result:        u.Result,
		LastError:     u.LastError,
		StartedAt:     u.StartedAt,
		FinishedAt:    u.FinishedAt,
	}
}

// DeadLetterResponse — представление dead letter в API.
type DeadLetterResponse struct {
	ID             string         `json:"id"`
	UnitID         string         `json:"unit_id"`
	TaskName       string         `json:"task_name"`
	Args           map[string]any `json:"args,omitempty"`
	CorrelationID  string         `json:"correlation_id"`
	Attempts       int            `json:"attempts"`
	Reason         string         `json:"reason"`
	DeadLetteredAt time.Time      `json:"dead_lettered_at"`
}

// DeadLetterFromDomain конвертирует domain.DeadLetter в DeadLetterResponse.
func DeadLetterFromDomain(dl domain.DeadLetter) DeadLetterResponse {
	return DeadLetterResponse{
		ID:             dl.ID.String(),
		UnitID:         dl.UnitID.String(),
		TaskName:       dl.TaskName,
		Args:           dl.Args,
		CorrelationID:  dl.CorrelationID,
		Attempts:       dl.Attempts,
		Reason:         dl.Reason,
		DeadLetteredAt: dl.DeadLetteredAt,
	}
}

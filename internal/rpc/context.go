package rpc

import (
	"github.com/google/uuid"

	"github.com/shakhov/paycore/internal/services"
)

// ToolContext — набор сервисных ручек и метаданных одного вызова.
//
// Создаётся заново для каждого RPC-вызова и каждого выполнения task;
// никогда не переиспользуется между вызовами — это единица изоляции,
// исключающая протечку состояния между запросами.
type ToolContext struct {
	// CallID — идентификатор вызова.
	CallID uuid.UUID

	// CorrelationID — сквозной идентификатор цепочки.
	CorrelationID string

	// UserID — идентификатор инициатора (если известен).
	UserID string

	// Services — внешние коллабораторы (payment, wallet, audit, ...).
	Services *services.Bundle
}

// NewToolContext создаёт свежий контекст вызова.
func NewToolContext(bundle *services.Bundle, correlationID string) *ToolContext {
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	return &ToolContext{
		CallID:        uuid.New(),
		CorrelationID: correlationID,
		Services:      bundle,
	}
}

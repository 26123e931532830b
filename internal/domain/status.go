package domain

// UnitStatus — статус work unit.
//
// Переходы:
//
//	PENDING → EXECUTING → SUCCEEDED
//	                    → FAILED → PENDING (retry, после задержки)
//	                    → FAILED → DEAD_LETTERED (retry исчерпаны или non-retryable)
type UnitStatus string

const (
	// UnitStatusPending — unit в очереди, ожидает worker'а.
	UnitStatusPending UnitStatus = "PENDING"

	// UnitStatusExecuting — unit выполняется worker'ом.
	UnitStatusExecuting UnitStatus = "EXECUTING"

	// UnitStatusSucceeded — unit выполнен успешно.
	UnitStatusSucceeded UnitStatus = "SUCCEEDED"

	// UnitStatusFailed — попытка завершилась ошибкой.
	UnitStatusFailed UnitStatus = "FAILED"

	// UnitStatusDeadLettered — unit больше никогда не будет выполняться.
	UnitStatusDeadLettered UnitStatus = "DEAD_LETTERED"
)

// IsTerminal возвращает true для конечных статусов.
func (s UnitStatus) IsTerminal() bool {
	return s == UnitStatusSucceeded || s == UnitStatusDeadLettered
}

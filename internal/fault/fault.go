// Package fault определяет классификацию ошибок, пересекающих границы
// системы (RPC dispatcher, execution bridge, worker).
//
// Любая ошибка, которая уходит за границу компонента, должна быть
// классифицирована — сырые internal errors наружу не выходят.
//
// Классы:
//   - Protocol        — некорректный envelope (версия, структура)
//   - MethodNotFound  — неизвестный RPC-метод
//   - ToolNotFound    — tool не зарегистрирован
//   - Validation      — аргументы не прошли input shape
//   - Bridge          — не удалось создать/освободить execution scope
//   - Handler         — ошибка бизнес-логики tool/task
//
// Retryable-правила (для queued tasks):
//   - Protocol / MethodNotFound / ToolNotFound / Validation — никогда
//   - Bridge — да (обычная причина — временная нехватка ресурсов)
//   - Handler — да, по умолчанию
package fault

import (
	"errors"
	"fmt"
)

// Kind — класс ошибки.
type Kind int

const (
	// KindUnknown — неклассифицированная ошибка. Трактуется как Handler.
	KindUnknown Kind = iota

	// KindProtocol — некорректный envelope (версия протокола, структура).
	KindProtocol

	// KindMethodNotFound — неизвестный RPC-метод.
	KindMethodNotFound

	// KindToolNotFound — tool с таким именем не зарегистрирован.
	KindToolNotFound

	// KindValidation — аргументы не соответствуют объявленному input shape.
	KindValidation

	// KindBridge — ошибка создания/освобождения execution scope.
	KindBridge

	// KindHandler — ошибка бизнес-логики tool/task.
	KindHandler
)

// String возвращает строковое представление класса.
func (k Kind) String() string {
	switch k {
	case KindProtocol:
		return "protocol"
	case KindMethodNotFound:
		return "method_not_found"
	case KindToolNotFound:
		return "tool_not_found"
	case KindValidation:
		return "validation"
	case KindBridge:
		return "bridge"
	case KindHandler:
		return "handler"
	default:
		return "unknown"
	}
}

// Retryable сообщает, имеет ли смысл повторять задачу после ошибки
// этого класса. Структурно некорректный input не станет корректным
// от повторения.
func (k Kind) Retryable() bool {
	switch k {
	case KindBridge, KindHandler, KindUnknown:
		return true
	default:
		return false
	}
}

// RPCCode возвращает JSON-RPC код ошибки для класса.
func (k Kind) RPCCode() int {
	switch k {
	case KindProtocol:
		return -32600
	case KindMethodNotFound:
		return -32601
	case KindToolNotFound, KindValidation:
		return -32602
	default:
		return -32603
	}
}

// Fault — классифицированная ошибка.
type Fault struct {
	// Kind — класс ошибки.
	Kind Kind

	// Message — сообщение для caller'а (без внутренних деталей).
	Message string

	// Err — обёрнутая исходная ошибка (может быть nil).
	Err error
}

// New создаёт Fault с заданным классом и сообщением.
func New(kind Kind, format string, args ...any) *Fault {
	return &Fault{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap оборачивает ошибку в Fault. Если err уже Fault — возвращает как есть.
func Wrap(kind Kind, err error) *Fault {
	if err == nil {
		return nil
	}

	var f *Fault
	if errors.As(err, &f) {
		return f
	}

	return &Fault{
		Kind:    kind,
		Message: err.Error(),
		Err:     err,
	}
}

// Error реализует error.
func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Unwrap возвращает обёрнутую ошибку.
func (f *Fault) Unwrap() error {
	return f.Err
}

// Retryable сообщает, retryable ли ошибка.
func (f *Fault) Retryable() bool {
	return f.Kind.Retryable()
}

// KindOf возвращает класс ошибки. Неклассифицированные ошибки
// трактуются как Handler (ошибка бизнес-логики).
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}

	return KindHandler
}

// IsRetryable сообщает, retryable ли произвольная ошибка.
// Неклассифицированные ошибки retryable по умолчанию.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var f *Fault
	if errors.As(err, &f) {
		return f.Retryable()
	}

	return true
}

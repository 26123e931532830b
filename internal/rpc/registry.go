package rpc

import (
	"context"
	"fmt"

	"github.com/shakhov/paycore/internal/services"
)

// Handler — исполняемая логика tool'а.
// Аргументы уже валидированы против input shape.
type Handler func(ctx context.Context, tc *ToolContext, args map[string]any) (map[string]any, error)

// ToolDefinition — зарегистрированный tool.
type ToolDefinition struct {
	// Name — уникальное имя (ключ registry и queue router'а).
	Name string

	// Description — описание для tools/list и CLI.
	Description string

	// Input — объявленная форма аргументов.
	Input InputShape

	// Handler — обработчик.
	Handler Handler
}

// Registry — реестр tools.
//
// Заполняется один раз при старте процесса и после этого только
// читается, поэтому lookups не требуют блокировок.
type Registry struct {
	tools map[string]ToolDefinition
	order []string
}

// NewRegistry создаёт пустой registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]ToolDefinition)}
}

// Register добавляет tool. Повторная регистрация имени — ошибка.
func (r *Registry) Register(def ToolDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name is empty")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool %s: handler is nil", def.Name)
	}
	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, def.Name)
	}

	r.tools[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// MustRegister — Register с panic при ошибке.
// Используется в стартовых таблицах tools, где дубликат — ошибка программиста.
func (r *Registry) MustRegister(def ToolDefinition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Resolve возвращает tool по имени.
func (r *Registry) Resolve(name string) (ToolDefinition, error) {
	def, ok := r.tools[name]
	if !ok {
		return ToolDefinition{}, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return def, nil
}

// List возвращает имена tools в порядке регистрации.
func (r *Registry) List() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ToolContextFactory создаёт свежий ToolContext для каждого вызова.
type ToolContextFactory func(correlationID string) *ToolContext

// DefaultContextFactory — фабрика поверх фиксированного Bundle.
func DefaultContextFactory(bundle *services.Bundle) ToolContextFactory {
	return func(correlationID string) *ToolContext {
		return NewToolContext(bundle, correlationID)
	}
}

package rpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shakhov/paycore/internal/bridge"
	"github.com/shakhov/paycore/internal/fault"
	"github.com/shakhov/paycore/internal/services"
	"github.com/shakhov/paycore/internal/telemetry"
)

// Dispatcher — синхронная точка входа tools/call.
//
// Проверяет envelope, резолвит tool, валидирует аргументы, строит
// свежий ToolContext и выполняет обработчик через execution bridge.
// Любая ошибка обработчика превращается в структурированный error
// envelope — за границу dispatcher'а исключения не выходят.
type Dispatcher struct {
	registry   *Registry
	bridge     *bridge.Bridge
	newContext ToolContextFactory
	audit      services.AuditService
	logger     *slog.Logger
	metrics    *telemetry.Metrics
}

// Config — конфигурация Dispatcher.
type Config struct {
	Registry *Registry
	Bridge   *bridge.Bridge

	// ContextFactory — фабрика ToolContext (обязательна).
	ContextFactory ToolContextFactory

	// Audit — журнал вызовов; опционально.
	Audit services.AuditService

	// Metrics — опционально; nil отключает метрики.
	Metrics *telemetry.Metrics

	// Logger
	Logger *slog.Logger
}

// NewDispatcher создаёт Dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		registry:   cfg.Registry,
		bridge:     cfg.Bridge,
		newContext: cfg.ContextFactory,
		audit:      cfg.Audit,
		logger:     logger,
		metrics:    cfg.Metrics,
	}
}

// Dispatch обрабатывает один envelope.
//
// Ответ всегда well-formed: заполнен ровно один из Result/Error.
// Dispatch не дедуплицирует запросы — два envelope с одинаковым id
// дают два независимых выполнения.
func (d *Dispatcher) Dispatch(ctx context.Context, env *Envelope) *Response {
	started := time.Now()

	resp := d.dispatch(ctx, env)

	d.emitAudit(env, resp, time.Since(started))
	return resp
}

func (d *Dispatcher) dispatch(ctx context.Context, env *Envelope) *Response {
	if env.JSONRPC != ProtocolVersion {
		return errorResponse(env.ID, fault.New(fault.KindProtocol,
			"unsupported protocol version %q", env.JSONRPC))
	}

	if env.Method != MethodToolsCall {
		return errorResponse(env.ID, fault.New(fault.KindMethodNotFound,
			"method %q not found", env.Method))
	}

	def, err := d.registry.Resolve(env.Params.Name)
	if err != nil {
		if errors.Is(err, ErrToolNotFound) {
			return errorResponse(env.ID, fault.New(fault.KindToolNotFound,
				"tool %q not found", env.Params.Name))
		}
		return errorResponse(env.ID, fault.Wrap(fault.KindHandler, err))
	}

	args := env.Params.Arguments
	if args == nil {
		args = map[string]any{}
	}
	if err := def.Input.Validate(args); err != nil {
		return errorResponse(env.ID, err)
	}

	// Свежий ToolContext на каждый вызов
	tc := d.newContext("")

	result, err := d.bridge.Run(ctx, def.Name, func(runCtx context.Context) (map[string]any, error) {
		return def.Handler(runCtx, tc, args)
	})
	if err != nil {
		return errorResponse(env.ID, err)
	}

	// Ровно один из result/error: пустой результат — это {}, не отсутствие поля
	if result == nil {
		result = map[string]any{}
	}

	return &Response{
		JSONRPC: ProtocolVersion,
		ID:      env.ID,
		Result:  result,
	}
}

// emitAudit публикует audit-событие и метрики вызова.
// Fire-and-forget: не блокирует и не ломает путь ответа.
func (d *Dispatcher) emitAudit(env *Envelope, resp *Response, latency time.Duration) {
	outcome := "ok"
	if resp.Error != nil {
		outcome = "error"
	}

	tool := env.Params.Name
	if tool == "" {
		tool = "(none)"
	}

	if d.metrics != nil {
		d.metrics.RPCCalls.WithLabelValues(tool, outcome).Inc()
		d.metrics.RPCDuration.WithLabelValues(tool).Observe(latency.Seconds())
	}

	if d.audit != nil {
		event := services.AuditEvent{
			Kind:    "rpc.call",
			Tool:    tool,
			Outcome: outcome,
			Latency: latency,
			At:      time.Now(),
		}
		go d.audit.Record(context.Background(), event)
	}

	d.logger.Debug("rpc call dispatched",
		"method", env.Method,
		"tool", tool,
		"outcome", outcome,
		"latency", latency,
	)
}

// errorResponse строит error envelope из классифицированной ошибки.
func errorResponse(id any, err error) *Response {
	kind := fault.KindOf(err)

	msg := err.Error()
	var f *fault.Fault
	if errors.As(err, &f) {
		msg = f.Message
	}

	return &Response{
		JSONRPC: ProtocolVersion,
		ID:      id,
		Error: &RPCError{
			Code:    kind.RPCCode(),
			Message: msg,
		},
	}
}

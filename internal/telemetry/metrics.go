package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics — набор prometheus-метрик paycore.
//
// Создаётся один раз в main и передаётся компонентам явно,
// как и остальная конфигурация.
type Metrics struct {
	// RPCCalls — количество RPC-вызовов по tool и исходу (ok/error).
	RPCCalls *prometheus.CounterVec

	// RPCDuration — длительность RPC-вызовов по tool.
	RPCDuration *prometheus.HistogramVec

	// TaskAttempts — количество попыток выполнения tasks по task_name и исходу.
	TaskAttempts *prometheus.CounterVec

	// DeadLetters — количество dead-lettered tasks по task_name.
	DeadLetters *prometheus.CounterVec

	// BatchInFlight — текущее количество одновременно выполняемых
	// worker-вызовов внутри batch processor.
	BatchInFlight prometheus.Gauge

	// QueueDepthHint — количество опубликованных work units по очередям.
	QueueDepthHint *prometheus.CounterVec
}

// NewMetrics регистрирует метрики в заданном registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RPCCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paycore",
			Name:      "rpc_calls_total",
			Help:      "RPC tool calls by tool name and outcome.",
		}, []string{"tool", "outcome"}),

		RPCDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "paycore",
			Name:      "rpc_call_duration_seconds",
			Help:      "RPC tool call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),

		TaskAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paycore",
			Name:      "task_attempts_total",
			Help:      "Work unit execution attempts by task name and outcome.",
		}, []string{"task", "outcome"}),

		DeadLetters: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paycore",
			Name:      "dead_letters_total",
			Help:      "Work units moved to the dead letter queue.",
		}, []string{"task"}),

		BatchInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "paycore",
			Name:      "batch_in_flight",
			Help:      "Concurrent worker invocations inside the batch processor.",
		}),

		QueueDepthHint: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paycore",
			Name:      "enqueued_total",
			Help:      "Work units published per queue.",
		}, []string{"queue"}),
	}
}

// NewDefaultMetrics регистрирует метрики в глобальном registry.
func NewDefaultMetrics() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
}

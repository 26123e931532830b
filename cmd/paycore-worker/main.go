// Paycore Worker — выполняет work units из очередей задач.
//
// Worker:
//   - Получает units из RabbitMQ (по одному consumer на очередь)
//   - Резолвит имя задачи в общем tool registry
//   - Выполняет tool через execution bridge
//   - Реализует retry с exponential backoff
//   - Уводит исчерпанные units в dead letter queue
//
// Workers масштабируются горизонтально.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shakhov/paycore/internal/batch"
	"github.com/shakhov/paycore/internal/bridge"
	"github.com/shakhov/paycore/internal/config"
	"github.com/shakhov/paycore/internal/domain"
	"github.com/shakhov/paycore/internal/repo"
	"github.com/shakhov/paycore/internal/rpc"
	"github.com/shakhov/paycore/internal/services"
	"github.com/shakhov/paycore/internal/taskq"
	"github.com/shakhov/paycore/internal/telemetry"
	"github.com/shakhov/paycore/internal/tools"
	"github.com/shakhov/paycore/internal/worker"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting paycore-worker")

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	metrics := telemetry.NewDefaultMetrics()

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// База данных: журнал best-effort, без неё worker живёт на очереди
	wCfg := worker.Config{}
	pool, err := repo.NewPool(ctx, cfg.DB)
	if err != nil {
		logger.Warn("database not available, running without unit journal", "error", err)
	} else {
		defer pool.Close()
		logger.Info("database connected")
		wCfg.Units = repo.NewWorkUnitRepo(pool)
		wCfg.DeadLetters = repo.NewDeadLetterRepo(pool)
	}

	// Брокер обязателен: worker без очереди бессмысленен
	mqConn, err := taskq.NewConnection(cfg.Broker.URL, logger)
	if err != nil {
		logger.Error("failed to connect to broker", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("broker connected")

	if err := taskq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	// Tool registry — тот же набор tools, что и у RPC-диспетчера
	bundle := services.MemoryBundle(logger)

	registry := rpc.NewRegistry()
	if err := tools.RegisterAll(registry, tools.Deps{
		Batch:  batch.New(batch.Config{MaxConcurrent: 8, Metrics: metrics, Logger: logger}),
		Logger: logger,
	}); err != nil {
		logger.Error("failed to register tools", "error", err)
		os.Exit(1)
	}

	wCfg.Registry = registry
	wCfg.Bridge = bridge.New(bridge.Config{MaxScopes: 16, Logger: logger})
	wCfg.Publisher = taskq.NewPublisher(mqConn, nil, logger, metrics)
	wCfg.Conn = mqConn
	wCfg.Notifications = bundle.Notifications
	wCfg.NewContext = rpc.DefaultContextFactory(bundle)
	wCfg.Policy = domain.RetryPolicy{
		MaxRetries:    cfg.Retry.MaxRetries,
		BaseDelay:     cfg.Retry.BaseDelay,
		MaxDelay:      cfg.Retry.MaxDelay,
		JitterPercent: cfg.Retry.JitterPercent,
	}
	wCfg.Prefetch = cfg.Broker.Prefetch
	wCfg.Metrics = metrics
	wCfg.Logger = logger

	w := worker.New(wCfg)

	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8082"
	if v := os.Getenv("WORKER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	w.Stop()
	logger.Info("paycore-worker stopped")
}

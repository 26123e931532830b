// Paycore API — HTTP-сервер платформы.
//
// Обслуживает:
//   - POST /rpc — синхронные tool-вызовы (JSON-RPC)
//   - /api/v1/* — постановка задач в очередь и чтение журнала
//   - /healthz, /metrics
//
// Брокер обязателен (API — входная точка очереди). База данных
// опциональна: без неё журнал units и dead letters недоступен,
// но RPC и enqueue продолжают работать.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shakhov/paycore/internal/api"
	"github.com/shakhov/paycore/internal/batch"
	"github.com/shakhov/paycore/internal/bridge"
	"github.com/shakhov/paycore/internal/config"
	"github.com/shakhov/paycore/internal/repo"
	"github.com/shakhov/paycore/internal/rpc"
	"github.com/shakhov/paycore/internal/services"
	"github.com/shakhov/paycore/internal/taskq"
	"github.com/shakhov/paycore/internal/telemetry"
	"github.com/shakhov/paycore/internal/tools"
)

var startTime = time.Now()

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting paycore-api")

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	metrics := telemetry.NewDefaultMetrics()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// База данных: журнал units опционален, очередь — source of truth
	var units *repo.WorkUnitRepo
	var deadLetters *repo.DeadLetterRepo
	pool, err := repo.NewPool(ctx, cfg.DB)
	if err != nil {
		logger.Warn("database not available, unit journal disabled", "error", err)
	} else {
		defer pool.Close()
		logger.Info("database connected")
		units = repo.NewWorkUnitRepo(pool)
		deadLetters = repo.NewDeadLetterRepo(pool)
	}

	// Брокер: без него нечем обслуживать enqueue
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

	publisher := taskq.NewPublisher(mqConn, nil, logger, metrics)

	// Tool registry и синхронный dispatcher
	bundle := services.MemoryBundle(logger)

	registry := rpc.NewRegistry()
	if err := tools.RegisterAll(registry, tools.Deps{
		Batch:  batch.New(batch.Config{MaxConcurrent: 8, Metrics: metrics, Logger: logger}),
		Logger: logger,
	}); err != nil {
		logger.Error("failed to register tools", "error", err)
		os.Exit(1)
	}

	dispatcher := rpc.NewDispatcher(rpc.Config{
		Registry:       registry,
		Bridge:         bridge.New(bridge.Config{MaxScopes: 32, Logger: logger}),
		ContextFactory: rpc.DefaultContextFactory(bundle),
		Audit:          bundle.Audit,
		Metrics:        metrics,
		Logger:         logger,
	})

	handlerCfg := api.Config{
		Dispatcher: dispatcher,
		Publisher:  publisher,
		MaxRetries: cfg.Retry.MaxRetries,
		Logger:     logger,
	}
	if units != nil {
		handlerCfg.Units = units
	}
	if deadLetters != nil {
		handlerCfg.DeadLetters = deadLetters
	}
	handler := api.NewHandler(handlerCfg)

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logger.Info("listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}

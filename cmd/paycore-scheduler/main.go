// Paycore Scheduler — ставит задачи статического расписания в очередь.
//
// При нескольких экземплярах лидерство обеспечивается advisory lock
// в PostgreSQL: тикает только процесс, удерживающий lock. Scheduler
// сам по себе stateless, пропущенные срабатывания не навёрстываются.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shakhov/paycore/internal/config"
	"github.com/shakhov/paycore/internal/repo"
	"github.com/shakhov/paycore/internal/scheduler"
	"github.com/shakhov/paycore/internal/taskq"
	"github.com/shakhov/paycore/internal/telemetry"
)

const schedLockKey int64 = 727272

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting paycore-scheduler")

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	metrics := telemetry.NewDefaultMetrics()

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool — нужен только для advisory lock
	pool, err := repo.NewPool(ctx, cfg.DB)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// Брокер
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

	sched, err := scheduler.New(scheduler.Config{
		Entries:    scheduler.DefaultEntries(),
		Publisher:  publisher,
		MaxRetries: cfg.Retry.MaxRetries,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("invalid schedule", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// scheduler loop с leader election
	go func() {
		tk := time.NewTicker(time.Second)
		defer tk.Stop()

		var hasLock bool
		defer func() {
			if hasLock {
				_, _ = pool.Exec(context.Background(), "select pg_advisory_unlock($1)", schedLockKey)
			}
		}()

		for {
			select {
			case t := <-tk.C:
				// пытаемся стать лидером (или подтвердить лидерство)
				if !hasLock {
					var ok bool
					if err := pool.QueryRow(ctx, "select pg_try_advisory_lock($1)", schedLockKey).Scan(&ok); err != nil {
						logger.Error("advisory lock error", "error", err)
						continue
					}
					hasLock = ok
					if hasLock {
						logger.Info("became scheduler leader")
					}
				}

				if !hasLock {
					// не лидер — пропускаем тик
					continue
				}

				sched.Tick(ctx, t)

			case <-ctx.Done():
				return
			}
		}
	}()

	port := ":8081"
	if v := os.Getenv("SCHED_PORT"); v != "" {
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
	logger.Info("paycore-scheduler stopped")
}

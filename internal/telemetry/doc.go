// Package telemetry — структурное логирование и метрики.
//
// Структура:
//   - logging.go — настройка slog (LOG_LEVEL, LOG_FORMAT), контекстные помощники
//   - metrics.go — prometheus-метрики (RPC, tasks, dead letters, batch)
//
// Метрики экспортируются каждым процессом через /metrics (promhttp).
package telemetry

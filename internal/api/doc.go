// Package api — HTTP-слой paycore.
//
// Маршруты:
//   - POST /rpc                  — JSON-RPC tools/call (синхронное выполнение)
//   - POST /api/v1/tasks         — постановка задачи в очередь (асинхронное)
//   - GET  /api/v1/tasks/{id}    — состояние work unit из журнала
//   - GET  /api/v1/dead-letters  — список dead letters
//
// Структура:
//   - handler.go      — Handler и зависимости
//   - rpc_handler.go  — JSON-RPC endpoint
//   - task_handler.go — enqueue и чтение журнала
//   - dto.go          — request/response структуры
//   - response.go     — helpers для JSON-ответов
//   - middleware.go   — Recovery, Logging
//   - routes.go       — регистрация маршрутов
package api

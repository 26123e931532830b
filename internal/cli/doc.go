// Package cli реализует команды paycore CLI.
//
// CLI работает только через HTTP API и намеренно не импортирует
// internal/api: response-типы дублируются в client.go, чтобы бинарник
// CLI не тянул серверные зависимости.
//
// Структура:
//   - client.go     — HTTP-клиент и DTO
//   - output.go     — табличный и JSON вывод
//   - call.go       — синхронный вызов tool (JSON-RPC)
//   - task.go       — постановка задач и чтение журнала
//   - deadletter.go — просмотр dead letters
package cli

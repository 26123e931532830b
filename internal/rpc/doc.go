// Package rpc — JSON-RPC диспетчер tools/call.
//
// Структура:
//   - envelope.go   — wire-формат запроса/ответа
//   - schema.go     — объявление и валидация input shape
//   - registry.go   — реестр tools (заполняется при старте, read-only)
//   - context.go    — ToolContext, создаваемый заново на каждый вызов
//   - dispatcher.go — Dispatch: валидация envelope → resolve → bridge → ответ
//
// Гарантии:
//   - ответ всегда well-formed: ровно один из result/error
//   - ошибки обработчиков классифицированы (см. internal/fault),
//     caller получает {code, message}, а не stack trace
//   - один audit/metrics-event на вызов, fire-and-forget
//   - дедупликации нет: повторный envelope с тем же id выполняется заново
package rpc

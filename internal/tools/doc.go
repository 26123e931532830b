// Package tools содержит штатный набор tools платёжной платформы.
//
// Каждый tool объявляет input shape; аргументы проверяются на границе
// диспетчеризации (RPC dispatcher или worker), поэтому обработчики
// работают с уже валидированными типами.
//
// Имена tools совпадают с именами задач очереди: payments.create,
// wallets.balance, fraud.score, analytics.revenue_report,
// notify.payment_reminders. Благодаря этому один и тот же tool
// вызывается и синхронно через tools/call, и асинхронно как work unit.
package tools

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shakhov/paycore/internal/batch"
	"github.com/shakhov/paycore/internal/fault"
	"github.com/shakhov/paycore/internal/rpc"
	"github.com/shakhov/paycore/internal/services"
)

// Deps — зависимости tool-обработчиков, не входящие в ToolContext.
type Deps struct {
	// Batch — процессор для пачечных tools (default: MaxConcurrent 8).
	Batch *batch.Processor

	// Logger
	Logger *slog.Logger
}

// RegisterAll регистрирует штатный набор tools платёжной платформы.
//
// Имена tools совпадают с именами задач: один и тот же tool доступен
// и через синхронный RPC-вызов, и как тело фоновой задачи.
func RegisterAll(registry *rpc.Registry, deps Deps) error {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	processor := deps.Batch
	if processor == nil {
		processor = batch.New(batch.Config{MaxConcurrent: 8, Logger: logger})
	}

	defs := []rpc.ToolDefinition{
		createPayment(),
		walletBalance(),
		fraudScore(),
		revenueReport(),
		paymentReminders(processor),
	}

	for _, def := range defs {
		if err := registry.Register(def); err != nil {
			return fmt.Errorf("register tool %s: %w", def.Name, err)
		}
	}

	return nil
}

// createPayment — создание платежа и зачисление на кошелёк.
func createPayment() rpc.ToolDefinition {
	return rpc.ToolDefinition{
		Name:        "payments.create",
		Description: "Создаёт платёж и зачисляет сумму на кошелёк",
		Input: rpc.Shape(
			rpc.Req("wallet_id", rpc.FieldString, "идентификатор кошелька"),
			rpc.Req("amount", rpc.FieldNumber, "сумма платежа, > 0"),
			rpc.Opt("currency", rpc.FieldString, "валюта (default: USD)"),
		),
		Handler: func(ctx context.Context, tc *rpc.ToolContext, args map[string]any) (map[string]any, error) {
			walletID := args["wallet_id"].(string)
			amount := args["amount"].(float64)

			currency := "USD"
			if c, ok := args["currency"].(string); ok && c != "" {
				currency = c
			}

			if amount <= 0 {
				return nil, fault.New(fault.KindValidation, "amount must be positive, got %v", amount)
			}

			payment, err := tc.Services.Payments.CreatePayment(ctx, walletID, amount, currency)
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"payment_id": payment.ID,
				"wallet_id":  payment.WalletID,
				"amount":     payment.Amount,
				"currency":   payment.Currency,
				"status":     payment.Status,
			}, nil
		},
	}
}

// walletBalance — баланс кошелька.
func walletBalance() rpc.ToolDefinition {
	return rpc.ToolDefinition{
		Name:        "wallets.balance",
		Description: "Возвращает баланс кошелька",
		Input: rpc.Shape(
			rpc.Req("wallet_id", rpc.FieldString, "идентификатор кошелька"),
		),
		Handler: func(ctx context.Context, tc *rpc.ToolContext, args map[string]any) (map[string]any, error) {
			walletID := args["wallet_id"].(string)

			wallet, err := tc.Services.Wallets.Balance(ctx, walletID)
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"wallet_id": wallet.ID,
				"balance":   wallet.Balance,
				"currency":  wallet.Currency,
			}, nil
		},
	}
}

// fraudScore — скоринг платежа.
func fraudScore() rpc.ToolDefinition {
	return rpc.ToolDefinition{
		Name:        "fraud.score",
		Description: "Оценивает риск платежа",
		Input: rpc.Shape(
			rpc.Req("payment_id", rpc.FieldString, "идентификатор платежа"),
		),
		Handler: func(ctx context.Context, tc *rpc.ToolContext, args map[string]any) (map[string]any, error) {
			paymentID := args["payment_id"].(string)

			score, err := tc.Services.Fraud.Score(ctx, paymentID)
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"payment_id": score.PaymentID,
				"score":      score.Score,
				"verdict":    score.Verdict,
			}, nil
		},
	}
}

// revenueReport — отчёт о выручке за период.
func revenueReport() rpc.ToolDefinition {
	return rpc.ToolDefinition{
		Name:        "analytics.revenue_report",
		Description: "Агрегирует выручку за период",
		Input: rpc.Shape(
			rpc.Opt("period", rpc.FieldString, "daily, weekly или monthly (default: daily)"),
		),
		Handler: func(ctx context.Context, tc *rpc.ToolContext, args map[string]any) (map[string]any, error) {
			period := "daily"
			if p, ok := args["period"].(string); ok && p != "" {
				period = p
			}

			var days int
			switch period {
			case "daily":
				days = 1
			case "weekly":
				days = 7
			case "monthly":
				days = 30
			default:
				return nil, fault.New(fault.KindValidation, "unknown period %q", period)
			}

			to := time.Now()
			from := to.AddDate(0, 0, -days)

			report, err := tc.Services.Analytics.Revenue(ctx, from, to)
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"period":        period,
				"from":          report.From.Format(time.RFC3339),
				"to":            report.To.Format(time.RFC3339),
				"total_revenue": report.TotalRevenue,
				"payments":      report.Payments,
			}, nil
		},
	}
}

// paymentReminders — рассылка напоминаний всем кошелькам.
// Пачечный tool: рассылка идёт через batch processor с ограниченным
// параллелизмом, падение одного получателя не останавливает остальных.
func paymentReminders(processor *batch.Processor) rpc.ToolDefinition {
	return rpc.ToolDefinition{
		Name:        "notify.payment_reminders",
		Description: "Рассылает напоминания об оплате по всем кошелькам",
		Input: rpc.Shape(
			rpc.Opt("channel", rpc.FieldString, "канал доставки (default: email)"),
		),
		Handler: func(ctx context.Context, tc *rpc.ToolContext, args map[string]any) (map[string]any, error) {
			channel := "email"
			if c, ok := args["channel"].(string); ok && c != "" {
				channel = c
			}

			wallets, err := tc.Services.Wallets.ListWallets(ctx)
			if err != nil {
				return nil, err
			}

			result := batch.Run(ctx, processor, wallets, func(ctx context.Context, w services.Wallet) error {
				msg := fmt.Sprintf("payment reminder for wallet %s (%s)", w.ID, w.Currency)
				return tc.Services.Notifications.Send(ctx, channel, w.UserID, msg)
			})

			return map[string]any{
				"channel":   channel,
				"total":     result.Total,
				"processed": result.Processed,
				"failed":    result.Failed,
			}, nil
		},
	}
}

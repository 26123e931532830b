package services

import (
	"context"
	"time"
)

// Payment — платёж.
type Payment struct {
	ID        string    `json:"id"`
	WalletID  string    `json:"wallet_id"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Wallet — кошелёк пользователя.
type Wallet struct {
	ID       string  `json:"id"`
	UserID   string  `json:"user_id"`
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

// RiskScore — результат fraud-скоринга.
type RiskScore struct {
	PaymentID string  `json:"payment_id"`
	Score     float64 `json:"score"` // 0.0 (чисто) — 1.0 (фрод)
	Verdict   string  `json:"verdict"`
}

// RevenueReport — агрегат выручки за период.
type RevenueReport struct {
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	TotalRevenue float64   `json:"total_revenue"`
	Payments     int       `json:"payments"`
}

// AuditEvent — событие аудита.
type AuditEvent struct {
	Kind          string         `json:"kind"`
	Tool          string         `json:"tool,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Outcome       string         `json:"outcome,omitempty"`
	Latency       time.Duration  `json:"latency,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
	At            time.Time      `json:"at"`
}

// PaymentService — создание и чтение платежей.
type PaymentService interface {
	CreatePayment(ctx context.Context, walletID string, amount float64, currency string) (*Payment, error)
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
}

// WalletService — кошельки и балансы.
type WalletService interface {
	Balance(ctx context.Context, walletID string) (*Wallet, error)
	ListWallets(ctx context.Context) ([]Wallet, error)
}

// FraudService — скоринг платежей.
type FraudService interface {
	Score(ctx context.Context, paymentID string) (*RiskScore, error)
}

// AnalyticsService — отчёты по выручке.
type AnalyticsService interface {
	Revenue(ctx context.Context, from, to time.Time) (*RevenueReport, error)
}

// NotificationService — sink для уведомлений (email/sms/webhook).
// Ядро не интерпретирует результат доставки — только успех/ошибку.
type NotificationService interface {
	Send(ctx context.Context, channel, recipient, message string) error
}

// AuditService — журнал событий. Запись не должна блокировать caller'а.
type AuditService interface {
	Record(ctx context.Context, event AuditEvent)
}

// Bundle — набор сервисов, который получает каждый ToolContext.
type Bundle struct {
	Payments      PaymentService
	Wallets       WalletService
	Fraud         FraudService
	Analytics     AnalyticsService
	Notifications NotificationService
	Audit         AuditService
}

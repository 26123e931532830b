package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryBundle возвращает Bundle с in-memory реализациями всех сервисов.
//
// Используется в разработке и тестах. Production-реализации подключаются
// через те же интерфейсы.
func MemoryBundle(logger *slog.Logger) *Bundle {
	if logger == nil {
		logger = slog.Default()
	}

	wallets := NewMemoryWallets()
	return &Bundle{
		Payments:      NewMemoryPayments(wallets),
		Wallets:       wallets,
		Fraud:         &memoryFraud{},
		Analytics:     &memoryAnalytics{},
		Notifications: &logNotifications{logger: logger},
		Audit:         &logAudit{logger: logger},
	}
}

// --- Wallets ---

// MemoryWallets — in-memory реализация WalletService с фикстурными данными.
type MemoryWallets struct {
	mu      sync.RWMutex
	wallets map[string]Wallet
}

// NewMemoryWallets создаёт хранилище с несколькими кошельками.
func NewMemoryWallets() *MemoryWallets {
	return &MemoryWallets{
		wallets: map[string]Wallet{
			"w1": {ID: "w1", UserID: "u1", Balance: 1250.50, Currency: "USD"},
			"w2": {ID: "w2", UserID: "u2", Balance: 310.00, Currency: "EUR"},
			"w3": {ID: "w3", UserID: "u3", Balance: 0, Currency: "USD"},
		},
	}
}

func (m *MemoryWallets) Balance(ctx context.Context, walletID string) (*Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.wallets[walletID]
	if !ok {
		return nil, fmt.Errorf("wallet %s not found", walletID)
	}
	return &w, nil
}

func (m *MemoryWallets) ListWallets(ctx context.Context) ([]Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Wallet, 0, len(m.wallets))
	for _, w := range m.wallets {
		out = append(out, w)
	}
	return out, nil
}

// Credit пополняет баланс (используется платёжным сервисом).
func (m *MemoryWallets) Credit(walletID string, amount float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.wallets[walletID]
	w.Balance += amount
	m.wallets[walletID] = w
}

// --- Payments ---

// MemoryPayments — in-memory реализация PaymentService.
type MemoryPayments struct {
	mu       sync.RWMutex
	payments map[string]Payment
	wallets  *MemoryWallets
}

// NewMemoryPayments создаёт платёжный сервис поверх хранилища кошельков.
func NewMemoryPayments(wallets *MemoryWallets) *MemoryPayments {
	return &MemoryPayments{
		payments: make(map[string]Payment),
		wallets:  wallets,
	}
}

func (m *MemoryPayments) CreatePayment(ctx context.Context, walletID string, amount float64, currency string) (*Payment, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %v", amount)
	}
	if _, err := m.wallets.Balance(ctx, walletID); err != nil {
		return nil, err
	}

	p := Payment{
		ID:        uuid.New().String(),
		WalletID:  walletID,
		Amount:    amount,
		Currency:  currency,
		Status:    "created",
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.payments[p.ID] = p
	m.mu.Unlock()

	m.wallets.Credit(walletID, amount)
	return &p, nil
}

func (m *MemoryPayments) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s not found", paymentID)
	}
	return &p, nil
}

// --- Fraud ---

// memoryFraud — детерминированный mock-скоринг.
type memoryFraud struct{}

func (m *memoryFraud) Score(ctx context.Context, paymentID string) (*RiskScore, error) {
	// Детерминированный псевдо-скор по идентификатору платежа
	var sum int
	for _, r := range paymentID {
		sum += int(r)
	}
	score := float64(sum%100) / 100

	verdict := "clear"
	if score > 0.8 {
		verdict = "review"
	}

	return &RiskScore{PaymentID: paymentID, Score: score, Verdict: verdict}, nil
}

// --- Analytics ---

type memoryAnalytics struct{}

func (m *memoryAnalytics) Revenue(ctx context.Context, from, to time.Time) (*RevenueReport, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid period: to %v before from %v", to, from)
	}

	// Mock-агрегат, пропорциональный длине периода
	days := to.Sub(from).Hours() / 24
	return &RevenueReport{
		From:         from,
		To:           to,
		TotalRevenue: 1000 * days,
		Payments:     int(42 * days),
	}, nil
}

// --- Notifications ---

// logNotifications — sink, пишущий уведомления в лог.
type logNotifications struct {
	logger *slog.Logger
}

func (n *logNotifications) Send(ctx context.Context, channel, recipient, message string) error {
	n.logger.Info("notification sent",
		"channel", channel,
		"recipient", recipient,
		"message", message,
	)
	return nil
}

// --- Audit ---

// logAudit — журнал аудита поверх slog.
type logAudit struct {
	logger *slog.Logger
}

func (a *logAudit) Record(ctx context.Context, event AuditEvent) {
	a.logger.Info("audit event",
		"kind", event.Kind,
		"tool", event.Tool,
		"correlation_id", event.CorrelationID,
		"outcome", event.Outcome,
		"latency", event.Latency,
	)
}

package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shakhov/paycore/internal/bridge"
	"github.com/shakhov/paycore/internal/domain"
	"github.com/shakhov/paycore/internal/rpc"
	"github.com/shakhov/paycore/internal/taskq"
)

// fakePublisher записывает публикации вместо отправки в брокер.
type fakePublisher struct {
	mu          sync.Mutex
	enqueued    []*domain.WorkUnit
	deadLetters []*domain.DeadLetter
}

func (f *fakePublisher) EnqueueUnit(ctx context.Context, unit *domain.WorkUnit) (taskq.Queue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *unit
	f.enqueued = append(f.enqueued, &clone)
	return taskq.QueueDefault, nil
}

func (f *fakePublisher) PublishDeadLetter(ctx context.Context, dl *domain.DeadLetter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deadLetters = append(f.deadLetters, dl)
	return nil
}

// fakeNotifier считает отправленные оповещения.
type fakeNotifier struct {
	mu    sync.Mutex
	sent  []string
	fails bool
}

func (f *fakeNotifier) Send(ctx context.Context, channel, recipient, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails {
		return errors.New("notifier down")
	}
	f.sent = append(f.sent, message)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastPolicy() domain.RetryPolicy {
	return domain.RetryPolicy{
		MaxRetries:    3,
		BaseDelay:     time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		JitterPercent: 0,
	}
}

func newTestWorker(t *testing.T, registry *rpc.Registry, pub *fakePublisher, notifier *fakeNotifier) *Worker {
	t.Helper()

	var notifications *fakeNotifier
	if notifier != nil {
		notifications = notifier
	}

	cfg := Config{
		Registry:   registry,
		Bridge:     bridge.New(bridge.Config{MaxScopes: 4, Logger: testLogger()}),
		Publisher:  pub,
		NewContext: func(correlationID string) *rpc.ToolContext { return rpc.NewToolContext(nil, correlationID) },
		Policy:     fastPolicy(),
		Logger:     testLogger(),
	}
	if notifications != nil {
		cfg.Notifications = notifications
	}

	return New(cfg)
}

func TestProcessUnit_Success(t *testing.T) {
	registry := rpc.NewRegistry()
	registry.MustRegister(rpc.ToolDefinition{
		Name: "payments.create",
		Handler: func(ctx context.Context, tc *rpc.ToolContext, args map[string]any) (map[string]any, error) {
			return map[string]any{"status": "created"}, nil
		},
	})

	pub := &fakePublisher{}
	w := newTestWorker(t, registry, pub, nil)

	unit := domain.NewWorkUnit("payments.create", nil, 3)
	if err := w.processUnit(context.Background(), unit); err != nil {
		t.Fatalf("processUnit: %v", err)
	}

	if unit.Status != domain.UnitStatusSucceeded {
		t.Errorf("expected SUCCEEDED, got %s", unit.Status)
	}
	if unit.Result["status"] != "created" {
		t.Errorf("result not recorded: %v", unit.Result)
	}
	if len(pub.enqueued) != 0 || len(pub.deadLetters) != 0 {
		t.Error("successful unit must not be republished or dead-lettered")
	}
}

func TestProcessUnit_RetryableFailureRepublishes(t *testing.T) {
	registry := rpc.NewRegistry()
	registry.MustRegister(rpc.ToolDefinition{
		Name: "payments.flaky",
		Handler: func(ctx context.Context, tc *rpc.ToolContext, args map[string]any) (map[string]any, error) {
			return nil, errors.New("upstream timeout")
		},
	})

	pub := &fakePublisher{}
	w := newTestWorker(t, registry, pub, nil)

	unit := domain.NewWorkUnit("payments.flaky", nil, 3)
	if err := w.processUnit(context.Background(), unit); err != nil {
		t.Fatalf("processUnit: %v", err)
	}

	if len(pub.enqueued) != 1 {
		t.Fatalf("expected 1 republish, got %d", len(pub.enqueued))
	}
	republished := pub.enqueued[0]
	if republished.RetryCount != 1 {
		t.Errorf("expected RetryCount=1, got %d", republished.RetryCount)
	}
	if republished.Status != domain.UnitStatusPending {
		t.Errorf("republished unit must be PENDING, got %s", republished.Status)
	}
	if len(pub.deadLetters) != 0 {
		t.Error("unit with retries left must not be dead-lettered")
	}
}

// Сценарий: задача всегда падает, max_retries=3 → ровно 4 попытки,
// затем один dead letter и ни одного выполнения после.
func TestProcessUnit_ExhaustedRetriesDeadLetter(t *testing.T) {
	var executions int
	var mu sync.Mutex

	registry := rpc.NewRegistry()
	registry.MustRegister(rpc.ToolDefinition{
		Name: "payments.doomed",
		Handler: func(ctx context.Context, tc *rpc.ToolContext, args map[string]any) (map[string]any, error) {
			mu.Lock()
			executions++
			mu.Unlock()
			return nil, errors.New("permanent infra failure")
		},
	})

	pub := &fakePublisher{}
	notifier := &fakeNotifier{}
	w := newTestWorker(t, registry, pub, notifier)

	// Прогоняем unit через цикл retry так, как это делает очередь:
	// каждый republish доставляется снова
	pending := []*domain.WorkUnit{domain.NewWorkUnit("payments.doomed", nil, 3)}
	for len(pending) > 0 {
		unit := pending[0]
		pending = pending[1:]

		if err := w.processUnit(context.Background(), unit); err != nil {
			t.Fatalf("processUnit: %v", err)
		}

		pub.mu.Lock()
		for _, u := range pub.enqueued {
			clone := *u
			pending = append(pending, &clone)
		}
		pub.enqueued = nil
		pub.mu.Unlock()
	}

	if executions != 4 {
		t.Errorf("expected exactly 4 attempts (1 + 3 retries), got %d", executions)
	}
	if len(pub.deadLetters) != 1 {
		t.Fatalf("expected exactly 1 dead letter, got %d", len(pub.deadLetters))
	}

	dl := pub.deadLetters[0]
	if dl.Attempts != 4 {
		t.Errorf("dead letter must record 4 attempts, got %d", dl.Attempts)
	}
	if dl.TaskName != "payments.doomed" {
		t.Errorf("unexpected task name %s", dl.TaskName)
	}
	if len(notifier.sent) != 1 {
		t.Errorf("expected exactly 1 alert, got %d", len(notifier.sent))
	}
}

func TestProcessUnit_NonRetryableFailsFast(t *testing.T) {
	var executions int

	registry := rpc.NewRegistry()
	registry.MustRegister(rpc.ToolDefinition{
		Name:  "payments.strict",
		Input: rpc.Shape(rpc.Req("wallet_id", rpc.FieldString, "идентификатор кошелька")),
		Handler: func(ctx context.Context, tc *rpc.ToolContext, args map[string]any) (map[string]any, error) {
			executions++
			return map[string]any{}, nil
		},
	})

	pub := &fakePublisher{}
	w := newTestWorker(t, registry, pub, nil)

	// Обязательный аргумент отсутствует — validation fault, без retry
	unit := domain.NewWorkUnit("payments.strict", nil, 3)
	if err := w.processUnit(context.Background(), unit); err != nil {
		t.Fatalf("processUnit: %v", err)
	}

	if executions != 0 {
		t.Error("handler must not run on validation failure")
	}
	if len(pub.enqueued) != 0 {
		t.Error("validation failure must not be retried")
	}
	if len(pub.deadLetters) != 1 {
		t.Fatalf("expected 1 dead letter, got %d", len(pub.deadLetters))
	}
	if pub.deadLetters[0].Attempts != 1 {
		t.Errorf("expected 1 attempt recorded, got %d", pub.deadLetters[0].Attempts)
	}
}

func TestProcessUnit_UnknownTaskDeadLetters(t *testing.T) {
	pub := &fakePublisher{}
	w := newTestWorker(t, rpc.NewRegistry(), pub, nil)

	unit := domain.NewWorkUnit("nonexistent.task", nil, 3)
	if err := w.processUnit(context.Background(), unit); err != nil {
		t.Fatalf("processUnit: %v", err)
	}

	if len(pub.enqueued) != 0 {
		t.Error("unknown task must not be retried")
	}
	if len(pub.deadLetters) != 1 {
		t.Fatalf("expected 1 dead letter, got %d", len(pub.deadLetters))
	}
}

func TestProcessUnit_TerminalUnitSkipped(t *testing.T) {
	var executions int

	registry := rpc.NewRegistry()
	registry.MustRegister(rpc.ToolDefinition{
		Name: "payments.create",
		Handler: func(ctx context.Context, tc *rpc.ToolContext, args map[string]any) (map[string]any, error) {
			executions++
			return map[string]any{}, nil
		},
	})

	pub := &fakePublisher{}
	w := newTestWorker(t, registry, pub, nil)

	unit := domain.NewWorkUnit("payments.create", nil, 3)
	unit.MarkDeadLettered()

	if err := w.processUnit(context.Background(), unit); err != nil {
		t.Fatalf("processUnit: %v", err)
	}

	if executions != 0 {
		t.Error("terminal unit must not be executed again")
	}
	if len(pub.deadLetters) != 0 {
		t.Error("terminal unit must not produce another dead letter")
	}
}

func TestProcessUnit_CancelledDuringBackoff(t *testing.T) {
	registry := rpc.NewRegistry()
	registry.MustRegister(rpc.ToolDefinition{
		Name: "payments.flaky",
		Handler: func(ctx context.Context, tc *rpc.ToolContext, args map[string]any) (map[string]any, error) {
			return nil, errors.New("upstream timeout")
		},
	})

	pub := &fakePublisher{}
	w := newTestWorker(t, registry, pub, nil)
	w.policy.BaseDelay = time.Minute
	w.policy.MaxDelay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	unit := domain.NewWorkUnit("payments.flaky", nil, 3)
	go func() {
		done <- w.processUnit(ctx, unit)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("processUnit did not return after cancel")
	}

	// Unit не переиздан: доставка вернётся в очередь через nack
	if len(pub.enqueued) != 0 {
		t.Error("cancelled backoff must not republish")
	}
}

func TestStart_RequiresDependencies(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"no registry", Config{Logger: testLogger()}, ErrRegistryRequired},
		{"no bridge", Config{Registry: rpc.NewRegistry(), Logger: testLogger()}, ErrBridgeRequired},
		{
			"no publisher",
			Config{
				Registry: rpc.NewRegistry(),
				Bridge:   bridge.New(bridge.Config{Logger: testLogger()}),
				Logger:   testLogger(),
			},
			ErrPublisherRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(tt.cfg)
			if err := w.Start(context.Background()); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

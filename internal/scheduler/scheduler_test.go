package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shakhov/paycore/internal/domain"
	"github.com/shakhov/paycore/internal/taskq"
)

type captureEnqueuer struct {
	mu    sync.Mutex
	units []*domain.WorkUnit
	fail  bool
}

func (c *captureEnqueuer) EnqueueUnit(ctx context.Context, unit *domain.WorkUnit) (taskq.Queue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return "", errors.New("broker unavailable")
	}
	c.units = append(c.units, unit)
	return taskq.QueueDefault, nil
}

func (c *captureEnqueuer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.units)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_ValidatesEntries(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  error
	}{
		{"no schedule", Entry{TaskName: "a"}, ErrNoSchedule},
		{
			"both schedules",
			Entry{TaskName: "a", Every: time.Minute, CronExpr: "* * * * *"},
			ErrAmbiguousSchedule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Config{
				Entries:   []Entry{tt.entry},
				Publisher: &captureEnqueuer{},
				Logger:    testLogger(),
			})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	t.Run("invalid cron", func(t *testing.T) {
		_, err := New(Config{
			Entries:   []Entry{{TaskName: "a", CronExpr: "not a cron"}},
			Publisher: &captureEnqueuer{},
			Logger:    testLogger(),
		})
		if err == nil {
			t.Error("expected error for invalid cron expression")
		}
	})

	t.Run("empty task name", func(t *testing.T) {
		_, err := New(Config{
			Entries:   []Entry{{Every: time.Minute}},
			Publisher: &captureEnqueuer{},
			Logger:    testLogger(),
		})
		if err == nil {
			t.Error("expected error for empty task name")
		}
	})
}

func TestTick_FiresDueEntry(t *testing.T) {
	pub := &captureEnqueuer{}
	s, err := New(Config{
		Entries: []Entry{{
			TaskName: "notify.payment_reminders",
			Args:     map[string]any{"channel": "email"},
			Every:    time.Hour,
		}},
		Publisher:  pub,
		MaxRetries: 2,
		Logger:     testLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Entry ещё не due — тик ничего не ставит
	s.Tick(context.Background(), time.Now())
	if pub.count() != 0 {
		t.Fatalf("entry fired before due: %d units", pub.count())
	}

	// Сдвигаем часы за next due
	s.Tick(context.Background(), time.Now().Add(2*time.Hour))
	if pub.count() != 1 {
		t.Fatalf("expected exactly 1 unit, got %d", pub.count())
	}

	unit := pub.units[0]
	if unit.TaskName != "notify.payment_reminders" {
		t.Errorf("unexpected task name %s", unit.TaskName)
	}
	if unit.Args["channel"] != "email" {
		t.Errorf("args not propagated: %v", unit.Args)
	}
	if unit.MaxRetries != 2 {
		t.Errorf("expected MaxRetries=2, got %d", unit.MaxRetries)
	}
	if unit.Status != domain.UnitStatusPending {
		t.Errorf("expected PENDING, got %s", unit.Status)
	}
}

// Пропущенные интервалы не навёрстываются: один unit на срабатывание,
// сколько бы интервалов ни прошло.
func TestTick_NoBackfill(t *testing.T) {
	pub := &captureEnqueuer{}
	s, err := New(Config{
		Entries:   []Entry{{TaskName: "notify.payment_reminders", Every: time.Hour}},
		Publisher: pub,
		Logger:    testLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Прошло 10 интервалов
	now := time.Now().Add(10 * time.Hour)
	s.Tick(context.Background(), now)

	if pub.count() != 1 {
		t.Fatalf("expected 1 unit despite 10 missed intervals, got %d", pub.count())
	}

	// Next due ушёл в будущее от now, повторный тик молчит
	s.Tick(context.Background(), now)
	if pub.count() != 1 {
		t.Errorf("entry fired twice in one window: %d units", pub.count())
	}

	next, ok := s.NextDueAt("notify.payment_reminders")
	if !ok {
		t.Fatal("entry missing from schedule")
	}
	if !next.After(now) {
		t.Errorf("next due %v must be after %v", next, now)
	}
}

// Ошибка постановки одного entry не блокирует остальные и сдвигает
// его next due — сломанный entry не молотит очередь каждый тик.
func TestTick_EnqueueFailureAdvancesNextDue(t *testing.T) {
	pub := &captureEnqueuer{fail: true}
	s, err := New(Config{
		Entries:   []Entry{{TaskName: "analytics.revenue_report", Every: time.Hour}},
		Publisher: pub,
		Logger:    testLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	now := time.Now().Add(2 * time.Hour)
	s.Tick(context.Background(), now)

	next, _ := s.NextDueAt("analytics.revenue_report")
	if !next.After(now) {
		t.Errorf("next due must advance even on enqueue failure")
	}
}

func TestTick_CronEntry(t *testing.T) {
	pub := &captureEnqueuer{}
	s, err := New(Config{
		Entries:   []Entry{{TaskName: "analytics.revenue_report", CronExpr: "0 3 * * *"}},
		Publisher: pub,
		Logger:    testLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	next, ok := s.NextDueAt("analytics.revenue_report")
	if !ok {
		t.Fatal("entry missing from schedule")
	}
	if next.Hour() != 3 || next.Minute() != 0 {
		t.Errorf("expected next due at 03:00, got %v", next)
	}

	// В момент next entry срабатывает ровно один раз
	s.Tick(context.Background(), next)
	if pub.count() != 1 {
		t.Fatalf("expected 1 unit, got %d", pub.count())
	}

	after, _ := s.NextDueAt("analytics.revenue_report")
	if !after.After(next) {
		t.Errorf("next due must advance past %v, got %v", next, after)
	}
}

func TestDefaultEntries_Valid(t *testing.T) {
	if _, err := New(Config{
		Entries:   DefaultEntries(),
		Publisher: &captureEnqueuer{},
		Logger:    testLogger(),
	}); err != nil {
		t.Errorf("default entries must validate: %v", err)
	}
}

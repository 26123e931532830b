package taskq

import "testing"

func TestDefaultRouter_AssignQueue(t *testing.T) {
	r := DefaultRouter()

	tests := []struct {
		task string
		want Queue
	}{
		{"payments.create", QueuePayments},
		{"payments.refund.partial", QueuePayments},
		{"fraud.score", QueueFraud},
		{"analytics.revenue_report", QueueAnalytics},
		{"notify.payment_reminders", QueueNotify},
		{"maintenance.cleanup", QueueDefault},
		{"", QueueDefault},
		// Префикс должен совпадать с начала, не с середины
		{"reports.payments.daily", QueueDefault},
	}

	for _, tt := range tests {
		t.Run(tt.task, func(t *testing.T) {
			if got := r.AssignQueue(tt.task); got != tt.want {
				t.Errorf("AssignQueue(%q) = %s, want %s", tt.task, got, tt.want)
			}
		})
	}
}

// Выигрывает самый длинный совпавший префикс.
func TestRouter_LongestPrefixWins(t *testing.T) {
	r := NewRouter([]Route{
		{Prefix: "payments.", Queue: "q.short"},
		{Prefix: "payments.refund.", Queue: "q.long"},
	}, "q.default")

	if got := r.AssignQueue("payments.refund.full"); got != "q.long" {
		t.Errorf("expected longest prefix to win, got %s", got)
	}
	if got := r.AssignQueue("payments.create"); got != "q.short" {
		t.Errorf("expected short prefix match, got %s", got)
	}
}

// При равной длине префиксов выигрывает объявленный раньше.
func TestRouter_TieBrokenByDeclarationOrder(t *testing.T) {
	r := NewRouter([]Route{
		{Prefix: "task.", Queue: "q.first"},
		{Prefix: "task.", Queue: "q.second"},
	}, "q.default")

	if got := r.AssignQueue("task.anything"); got != "q.first" {
		t.Errorf("expected earlier declaration to win tie, got %s", got)
	}
}

func TestRouter_NoMatchFallsBackToDefault(t *testing.T) {
	r := NewRouter([]Route{
		{Prefix: "payments.", Queue: QueuePayments},
	}, QueueDefault)

	if got := r.AssignQueue("unknown.task"); got != QueueDefault {
		t.Errorf("expected default queue, got %s", got)
	}
}

// Router тотален: любое имя задачи получает очередь.
func TestRouter_TotalFunction(t *testing.T) {
	r := DefaultRouter()

	for _, task := range []string{"", ".", "x", "payments", "payments."} {
		if got := r.AssignQueue(task); got == "" {
			t.Errorf("AssignQueue(%q) returned empty queue", task)
		}
	}
}

func TestRouter_Queues(t *testing.T) {
	r := DefaultRouter()

	queues := r.Queues()
	want := map[Queue]bool{
		QueueDefault:   true,
		QueuePayments:  true,
		QueueFraud:     true,
		QueueAnalytics: true,
		QueueNotify:    true,
	}

	if len(queues) != len(want) {
		t.Fatalf("expected %d queues, got %d: %v", len(want), len(queues), queues)
	}
	for _, q := range queues {
		if !want[q] {
			t.Errorf("unexpected queue %s", q)
		}
	}
}

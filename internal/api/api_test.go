package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/shakhov/paycore/internal/bridge"
	"github.com/shakhov/paycore/internal/domain"
	"github.com/shakhov/paycore/internal/repo"
	"github.com/shakhov/paycore/internal/rpc"
	"github.com/shakhov/paycore/internal/services"
	"github.com/shakhov/paycore/internal/taskq"
	"github.com/shakhov/paycore/internal/tools"
)

type fakeEnqueuer struct {
	mu    sync.Mutex
	units []*domain.WorkUnit
}

func (f *fakeEnqueuer) EnqueueUnit(ctx context.Context, unit *domain.WorkUnit) (taskq.Queue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.units = append(f.units, unit)
	return taskq.QueuePayments, nil
}

type fakeDeadLetters struct {
	letters []domain.DeadLetter
}

func (f *fakeDeadLetters) List(ctx context.Context, limit int) ([]domain.DeadLetter, error) {
	if limit > len(f.letters) {
		limit = len(f.letters)
	}
	return f.letters[:limit], nil
}

type fakeUnits struct {
	units map[uuid.UUID]*domain.WorkUnit
}

func (f *fakeUnits) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkUnit, error) {
	u, ok := f.units[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return u, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeEnqueuer, *fakeUnits, *fakeDeadLetters) {
	t.Helper()

	logger := testLogger()
	bundle := services.MemoryBundle(logger)

	registry := rpc.NewRegistry()
	if err := tools.RegisterAll(registry, tools.Deps{Logger: logger}); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}

	dispatcher := rpc.NewDispatcher(rpc.Config{
		Registry:       registry,
		Bridge:         bridge.New(bridge.Config{MaxScopes: 4, Logger: logger}),
		ContextFactory: rpc.DefaultContextFactory(bundle),
		Logger:         logger,
	})

	enq := &fakeEnqueuer{}
	units := &fakeUnits{units: map[uuid.UUID]*domain.WorkUnit{}}
	dls := &fakeDeadLetters{}

	h := NewHandler(Config{
		Dispatcher:  dispatcher,
		Publisher:   enq,
		Units:       units,
		DeadLetters: dls,
		Logger:      logger,
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, enq, units, dls
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeRPC(t *testing.T, resp *http.Response) rpc.Response {
	t.Helper()
	defer resp.Body.Close()

	var out rpc.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestCallRPC_Success(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/rpc", `{
		"jsonrpc": "2.0",
		"id": 7,
		"method": "tools/call",
		"params": {"name": "wallets.balance", "arguments": {"wallet_id": "w1"}}
	}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	out := decodeRPC(t, resp)
	if out.Error != nil {
		t.Fatalf("unexpected rpc error: %+v", out.Error)
	}
	if out.ID != float64(7) {
		t.Errorf("id must round-trip, got %v", out.ID)
	}

	result, ok := out.Result.(map[string]any)
	if !ok {
		t.Fatalf("expected object result, got %T", out.Result)
	}
	if result["balance"] != 1250.50 {
		t.Errorf("expected balance 1250.50, got %v", result["balance"])
	}
}

func TestCallRPC_MalformedJSON(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/rpc", `{"jsonrpc": "2.0", "id": `)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("transport must stay 200, got %d", resp.StatusCode)
	}

	out := decodeRPC(t, resp)
	if out.Error == nil {
		t.Fatal("expected parse error")
	}
	if out.Error.Code != rpc.CodeParseError {
		t.Errorf("expected -32700, got %d", out.Error.Code)
	}
}

func TestCallRPC_UnknownTool(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/rpc", `{
		"jsonrpc": "2.0",
		"id": 1,
		"method": "tools/call",
		"params": {"name": "no.such.tool"}
	}`)

	out := decodeRPC(t, resp)
	if out.Error == nil {
		t.Fatal("expected error for unknown tool")
	}
	if out.Error.Code != -32602 {
		t.Errorf("expected -32602, got %d", out.Error.Code)
	}
	if out.Result != nil {
		t.Error("result must be absent when error is set")
	}
}

func TestEnqueueTask(t *testing.T) {
	srv, enq, _, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/tasks", `{
		"task_name": "payments.create",
		"args": {"wallet_id": "w1", "amount": 10},
		"max_retries": 5
	}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	var out struct {
		Data EnqueueResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if out.Data.Queue != string(taskq.QueuePayments) {
		t.Errorf("expected queue %s, got %s", taskq.QueuePayments, out.Data.Queue)
	}
	if out.Data.Status != string(domain.UnitStatusPending) {
		t.Errorf("expected PENDING, got %s", out.Data.Status)
	}

	if len(enq.units) != 1 {
		t.Fatalf("expected 1 enqueued unit, got %d", len(enq.units))
	}
	if enq.units[0].MaxRetries != 5 {
		t.Errorf("expected MaxRetries=5, got %d", enq.units[0].MaxRetries)
	}
}

func TestEnqueueTask_Validation(t *testing.T) {
	srv, enq, _, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing task_name", `{"args": {}}`},
		{"negative retries", `{"task_name": "x", "max_retries": -1}`},
		{"malformed body", `{{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/v1/tasks", tt.body)
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
		})
	}

	if len(enq.units) != 0 {
		t.Errorf("invalid requests must not enqueue, got %d units", len(enq.units))
	}
}

func TestGetUnit(t *testing.T) {
	srv, _, units, _ := newTestServer(t)

	unit := domain.NewWorkUnit("payments.create", map[string]any{"amount": 1.0}, 3)
	unit.MarkSucceeded(map[string]any{"payment_id": "p1"})
	units.units[unit.ID] = unit

	resp, err := http.Get(srv.URL + "/api/v1/tasks/" + unit.ID.String())
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		Data UnitResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Data.Status != string(domain.UnitStatusSucceeded) {
		t.Errorf("expected SUCCEEDED, got %s", out.Data.Status)
	}
}

func TestGetUnit_NotFound(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/tasks/" + uuid.New().String())
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListDeadLetters(t *testing.T) {
	srv, _, _, dls := newTestServer(t)

	unit := domain.NewWorkUnit("payments.doomed", nil, 3)
	unit.MarkFailed("boom")
	unit.MarkDeadLettered()
	dls.letters = []domain.DeadLetter{*domain.NewDeadLetter(unit)}

	resp, err := http.Get(srv.URL + "/api/v1/dead-letters?limit=10")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		Data  []DeadLetterResponse `json:"data"`
		Total int                  `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Total != 1 || len(out.Data) != 1 {
		t.Fatalf("expected 1 dead letter, got total=%d len=%d", out.Total, len(out.Data))
	}
	if out.Data[0].Reason != "boom" {
		t.Errorf("expected reason boom, got %s", out.Data[0].Reason)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := testLogger()
	mux := http.NewServeMux()

	chain := Chain(Recovery(logger), Logging(logger))
	mux.Handle("GET /boom", chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	})))

	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/boom")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500 after panic, got %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "INTERNAL_ERROR") {
		t.Errorf("expected error body, got %s", buf.String())
	}
}

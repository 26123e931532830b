package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKind_Retryable(t *testing.T) {
	tests := []struct {
		kind      Kind
		retryable bool
	}{
		{KindProtocol, false},
		{KindMethodNotFound, false},
		{KindToolNotFound, false},
		{KindValidation, false},
		{KindBridge, true},
		{KindHandler, true},
		{KindUnknown, true},
	}

	for _, tt := range tests {
		if got := tt.kind.Retryable(); got != tt.retryable {
			t.Errorf("%s: expected retryable=%v, got %v", tt.kind, tt.retryable, got)
		}
	}
}

func TestKind_RPCCode(t *testing.T) {
	tests := []struct {
		kind Kind
		code int
	}{
		{KindProtocol, -32600},
		{KindMethodNotFound, -32601},
		{KindToolNotFound, -32602},
		{KindValidation, -32602},
		{KindBridge, -32603},
		{KindHandler, -32603},
	}

	for _, tt := range tests {
		if got := tt.kind.RPCCode(); got != tt.code {
			t.Errorf("%s: expected code %d, got %d", tt.kind, tt.code, got)
		}
	}
}

func TestWrap_PreservesExistingFault(t *testing.T) {
	orig := New(KindValidation, "field %q is required", "amount")

	// Оборачиваем через fmt.Errorf и снова в Wrap — класс не должен измениться
	wrapped := fmt.Errorf("dispatch: %w", orig)
	f := Wrap(KindHandler, wrapped)

	if f.Kind != KindValidation {
		t.Errorf("expected KindValidation, got %s", f.Kind)
	}
}

func TestWrap_NilError(t *testing.T) {
	if f := Wrap(KindHandler, nil); f != nil {
		t.Errorf("expected nil, got %v", f)
	}
}

func TestKindOf_PlainError(t *testing.T) {
	err := errors.New("boom")
	if got := KindOf(err); got != KindHandler {
		t.Errorf("plain error should classify as handler, got %s", got)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil error should not be retryable")
	}
	if !IsRetryable(errors.New("network down")) {
		t.Error("unclassified error should be retryable by default")
	}
	if IsRetryable(New(KindValidation, "bad args")) {
		t.Error("validation fault must never be retryable")
	}
	if !IsRetryable(fmt.Errorf("run: %w", New(KindBridge, "scope exhausted"))) {
		t.Error("wrapped bridge fault should stay retryable")
	}
}

func TestFault_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	f := Wrap(KindHandler, inner)

	if !errors.Is(f, inner) {
		t.Error("errors.Is should see the wrapped error")
	}
}

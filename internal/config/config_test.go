package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	if cfg.AppName != "paycore" {
		t.Errorf("expected app name paycore, got %s", cfg.AppName)
	}
	if cfg.Retry.MaxRetries != 3 {
		t.Errorf("expected 3 retries by default, got %d", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.BaseDelay != time.Second {
		t.Errorf("expected 1s base delay, got %v", cfg.Retry.BaseDelay)
	}
	if cfg.Broker.Prefetch != 5 {
		t.Errorf("expected prefetch 5, got %d", cfg.Broker.Prefetch)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("TASK_MAX_RETRIES", "7")
	t.Setenv("TASK_RETRY_BASE_DELAY", "250ms")
	t.Setenv("HTTP_PORT", "9090")

	cfg := FromEnv()

	if cfg.Retry.MaxRetries != 7 {
		t.Errorf("expected 7, got %d", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.BaseDelay != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", cfg.Retry.BaseDelay)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.HTTP.Addr)
	}
}

func TestFromEnv_IgnoresMalformed(t *testing.T) {
	t.Setenv("TASK_MAX_RETRIES", "not-a-number")

	cfg := FromEnv()
	if cfg.Retry.MaxRetries != 3 {
		t.Errorf("malformed env should fall back to default, got %d", cfg.Retry.MaxRetries)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	bad := FromEnv()
	bad.Retry.MaxRetries = -1
	if err := bad.Validate(); err == nil {
		t.Error("negative max retries should fail validation")
	}

	bad = FromEnv()
	bad.Retry.JitterPercent = 1.5
	if err := bad.Validate(); err == nil {
		t.Error("jitter > 1 should fail validation")
	}
}

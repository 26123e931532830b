package domain

import (
	"math/rand/v2"
	"time"
)

// RetryPolicy — политика повторов для work units.
type RetryPolicy struct {
	// MaxRetries — количество повторов после первой попытки.
	MaxRetries int

	// BaseDelay — базовая задержка backoff.
	BaseDelay time.Duration

	// MaxDelay — потолок задержки.
	MaxDelay time.Duration

	// JitterPercent — доля случайного разброса от задержки (0.0–1.0).
	JitterPercent float64
}

// DefaultRetryPolicy возвращает политику по умолчанию:
// 3 повтора, backoff 1s × 2^attempt, потолок 30s, jitter 20%.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    3,
		BaseDelay:     time.Second,
		MaxDelay:      30 * time.Second,
		JitterPercent: 0.2,
	}
}

// RetryState — производное состояние retry для unit.
type RetryState struct {
	// Attempt — номер завершившейся попытки (начиная с 1).
	Attempt int

	// BackoffDelay — задержка перед следующей попыткой.
	BackoffDelay time.Duration

	// EligibleForRetry — остались ли попытки.
	EligibleForRetry bool
}

// StateFor вычисляет RetryState для unit после неудачной попытки.
func (p RetryPolicy) StateFor(u *WorkUnit) RetryState {
	return RetryState{
		Attempt:          u.Attempt(),
		BackoffDelay:     p.Backoff(u.RetryCount),
		EligibleForRetry: u.RetryCount < p.MaxRetries,
	}
}

// Backoff вычисляет задержку перед повтором номер retry+1.
//
// delay = BaseDelay × 2^retry, с потолком MaxDelay и добавленным
// jitter в [0, JitterPercent×delay). Jitter не нарушает монотонность:
// базовая часть растёт строго, разброс добавляется сверху.
func (p RetryPolicy) Backoff(retry int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}

	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}

	delay := base
	for i := 0; i < retry; i++ {
		delay *= 2
		if delay >= maxDelay {
			delay = maxDelay
			break
		}
	}
	if delay > maxDelay {
		delay = maxDelay
	}

	if p.JitterPercent > 0 {
		jitter := time.Duration(rand.Float64() * p.JitterPercent * float64(delay))
		delay += jitter
	}

	return delay
}

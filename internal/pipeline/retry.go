package pipeline

import "time"

// RetryPolicy bounds per-dimension collection attempts
// ⭐ SSOT: 재시도 정책은 이 타입으로만 주입
// Transient adapter failures are retried with exponential backoff; the
// dimension converges to unavailable once attempts are exhausted. It never
// fails the run.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy returns the default retry policy
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4,
		BaseDelay:   1 * time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// NextDelay doubles the delay, capped at MaxDelay
func (p RetryPolicy) NextDelay(current time.Duration) time.Duration {
	next := current * 2
	if next > p.MaxDelay {
		next = p.MaxDelay
	}
	return next
}

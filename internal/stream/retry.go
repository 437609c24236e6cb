package stream

import "time"

// RetryPolicy describes reconnection behavior after an unexpected close.
// Delays grow exponentially per attempt; a bounded attempt count keeps
// the client from retrying forever.
type RetryPolicy struct {
	// MaxAttempts caps consecutive failed reconnects.
	MaxAttempts int

	// BaseDelay is doubled per attempt: attempt n waits BaseDelay * 2^n.
	BaseDelay time.Duration

	// MaxDelay caps a single wait regardless of attempt number.
	MaxDelay time.Duration
}

// DefaultRetryPolicy matches the backend's expectations: up to five
// attempts at 2s, 4s, 8s, 16s, 32s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    60 * time.Second,
	}
}

// Delay returns the wait before the given attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay << uint(attempt)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Exhausted reports whether the given attempt exceeds the cap.
func (p RetryPolicy) Exhausted(attempt int) bool {
	return attempt > p.MaxAttempts
}

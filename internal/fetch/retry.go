package fetch

import (
	"sync/atomic"
	"time"
)

// RetryPolicy holds the adaptive delay shared by every request going through
// one Client. The remote rate limiter is global to our IP, so the delay is
// client-wide rather than per-request: concurrent fetchers that all hit a 429
// converge on one delay value via compare-and-swap.
type RetryPolicy struct {
	baseline time.Duration
	plateau  time.Duration

	delay   atomic.Int64
	strikes atomic.Int32
}

// NewRetryPolicy creates a policy starting at baseline. Two consecutive
// rate-limit hits escalate the delay to plateau; any success resets it.
func NewRetryPolicy(baseline, plateau time.Duration) *RetryPolicy {
	p := &RetryPolicy{
		baseline: baseline,
		plateau:  plateau,
	}
	p.delay.Store(int64(baseline))
	return p
}

// Delay returns the current wait applied before a rate-limited retry.
func (p *RetryPolicy) Delay() time.Duration {
	return time.Duration(p.delay.Load())
}

// RecordRateLimit registers a rate-limit hit and returns the delay to wait
// before the next attempt.
func (p *RetryPolicy) RecordRateLimit() time.Duration {
	if p.strikes.Add(1) >= 2 {
		p.delay.CompareAndSwap(int64(p.baseline), int64(p.plateau))
	}
	return p.Delay()
}

// RecordSuccess resets the policy to baseline after any successful request.
func (p *RetryPolicy) RecordSuccess() {
	if p.strikes.Swap(0) > 0 {
		p.delay.Store(int64(p.baseline))
	}
}

package job

import (
	"math/rand/v2"
	"time"
)

// Default retry policy parameters.
const (
	DefaultRetryBase     = 15 * time.Second
	DefaultRetryMinDelay = 15 * time.Second
	DefaultRetryMaxDelay = 24 * time.Hour
)

// RetryPolicy computes the next visibility delay from an attempt count.
// Attempt counting is owned by the backend (pgmq's read_ct, or Sidekiq's
// retry counter); RetryPolicy only ever reads it.
type RetryPolicy struct {
	MaxRetries uint32
	Base       time.Duration
	MinDelay   time.Duration
	MaxDelay   time.Duration
}

// NewRetryPolicy builds a RetryPolicy from a resolved max-retries count
// (WorkerConfig.MaxRetries), using package defaults for the backoff shape.
func NewRetryPolicy(maxRetries uint32) RetryPolicy {
	return RetryPolicy{
		MaxRetries: maxRetries,
		Base:       DefaultRetryBase,
		MinDelay:   DefaultRetryMinDelay,
		MaxDelay:   DefaultRetryMaxDelay,
	}
}

// Next returns the delay before the next attempt and whether a retry
// should happen at all. attempt is 0-indexed (the count of prior failed
// attempts). When attempt >= MaxRetries, the job is a permanent failure.
func (p RetryPolicy) Next(attempt uint32) (delay time.Duration, retry bool) {
	if attempt >= p.MaxRetries {
		return 0, false
	}

	base := p.Base
	if base <= 0 {
		base = DefaultRetryBase
	}

	backoff := base * (1 << attempt)
	jitter := time.Duration(rand.Int64N(int64(base) + 1))
	delay = backoff + jitter

	minDelay, maxDelay := p.MinDelay, p.MaxDelay
	if minDelay <= 0 {
		minDelay = DefaultRetryMinDelay
	}
	if maxDelay <= 0 {
		maxDelay = DefaultRetryMaxDelay
	}

	if delay < minDelay {
		delay = minDelay
	}
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay, true
}

package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicy_Next_ExhaustsAtMaxRetries(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy(3)
	_, retry := p.Next(3)
	assert.False(t, retry, "attempt == MaxRetries must not retry")

	_, retry = p.Next(2)
	assert.True(t, retry, "attempt < MaxRetries must retry")
}

func TestRetryPolicy_Next_DelayGrowsWithAttemptAndStaysClamped(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{MaxRetries: 10, Base: time.Second, MinDelay: time.Second, MaxDelay: 10 * time.Second}

	var prev time.Duration
	for attempt := uint32(0); attempt < 10; attempt++ {
		delay, retry := p.Next(attempt)
		assert.True(t, retry)
		assert.GreaterOrEqual(t, delay, prev, "delay must not shrink as attempt grows")
		assert.GreaterOrEqual(t, delay, p.MinDelay)
		assert.LessOrEqual(t, delay, p.MaxDelay)
		prev = delay
	}
}

func TestRetryPolicy_Next_ZeroFieldsFallBackToPackageDefaults(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{MaxRetries: 1}
	delay, retry := p.Next(0)
	assert.True(t, retry)
	assert.GreaterOrEqual(t, delay, DefaultRetryMinDelay)
	assert.LessOrEqual(t, delay, DefaultRetryMaxDelay)
}

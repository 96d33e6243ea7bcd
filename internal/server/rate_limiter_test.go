package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsBurst(t *testing.T) {
	limiter := newRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(), "token %d", i)
	}
	assert.False(t, limiter.Allow())
}

func TestRateLimiterRefills(t *testing.T) {
	limiter := newRateLimiter(2, 100*time.Millisecond)
	start := time.Now()

	assert.True(t, limiter.AllowN(start, 2))
	assert.False(t, limiter.AllowN(start, 1))
	assert.True(t, limiter.AllowN(start.Add(100*time.Millisecond), 2))
}

func TestRateLimiterClampsInvalidSettings(t *testing.T) {
	limiter := newRateLimiter(0, 0)

	assert.Equal(t, 1, limiter.Burst())
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())
}

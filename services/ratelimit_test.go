package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlidingWindowLimiter(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewSlidingWindowLimiter()
	limiter.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		ok, _ := limiter.Allow("gemini", 3, time.Minute)
		assert.True(t, ok, "call %d should pass", i)
	}

	ok, wait := limiter.Allow("gemini", 3, time.Minute)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, wait)

	// other keys keep their own window
	ok, _ = limiter.Allow("openweather", 3, time.Minute)
	assert.True(t, ok)

	// 30s later the first window is still full
	current = current.Add(30 * time.Second)
	ok, wait = limiter.Allow("gemini", 3, time.Minute)
	assert.False(t, ok)
	assert.Equal(t, 30*time.Second, wait)

	// once the oldest timestamp falls out, calls pass again
	current = current.Add(31 * time.Second)
	ok, _ = limiter.Allow("gemini", 3, time.Minute)
	assert.True(t, ok)
}

func TestLimiterAcquireError(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewSlidingWindowLimiter()
	limiter.now = func() time.Time { return current }

	assert.NoError(t, limiter.Acquire("gemini", 1, time.Minute))

	err := limiter.Acquire("gemini", 1, time.Minute)
	var rateErr *RateLimitedError
	assert.True(t, errors.As(err, &rateErr), err)
	assert.Equal(t, "gemini", rateErr.Resource)
	assert.Equal(t, time.Minute, rateErr.Wait)
}

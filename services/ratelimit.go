package services

import (
	"sync"
	"time"
)

// SlidingWindowLimiter bounds outbound call frequency per named resource
// ("gemini", "openweather", ...). State is in-memory and per process: it
// resets on restart and does not coordinate across instances, which is fine
// for the single-instance deployment this service assumes. For multi-instance
// deployments swap the map for a shared counter store behind the same
// interface.
type SlidingWindowLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string][]time.Time
}

func NewSlidingWindowLimiter() *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		now:     time.Now,
		windows: make(map[string][]time.Time),
	}
}

// Allow records a call for key when it fits inside the trailing window.
// When the window already holds maxRequests timestamps it returns false plus
// the time to wait until the oldest call leaves the window.
func (l *SlidingWindowLimiter) Allow(key string, maxRequests int, window time.Duration) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-window)

	kept := l.windows[key][:0]
	for _, ts := range l.windows[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.windows[key] = kept

	if len(kept) >= maxRequests {
		wait := kept[0].Add(window).Sub(now)
		return false, wait
	}

	l.windows[key] = append(l.windows[key], now)
	return true, 0
}

// Acquire is Allow with an error describing the wait, for call sites that
// surface the rejection directly.
func (l *SlidingWindowLimiter) Acquire(key string, maxRequests int, window time.Duration) error {
	ok, wait := l.Allow(key, maxRequests, window)
	if !ok {
		return &RateLimitedError{Resource: key, Wait: wait}
	}
	return nil
}

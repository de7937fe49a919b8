package services

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy is a reusable retry loop: max attempts, exponential backoff and
// a classifier deciding which errors must not be retried (timeouts, content
// violations). Applied to the image-analysis call and anything else that
// talks to flaky externals.
type RetryPolicy struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	Multiplier   float64
	NonRetryable func(error) bool

	// test hook, defaults to time.After via ctx-aware sleep
	sleep func(ctx context.Context, d time.Duration) error
}

func (p RetryPolicy) wait(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		return p.sleep(ctx, d)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Do runs op until it succeeds, a non-retryable error occurs, or attempts are
// exhausted. Returns the last error together with the attempt count.
func (p RetryPolicy) Do(ctx context.Context, label string, op func(ctx context.Context) error) (int, error) {
	attempts := 0
	delay := p.BaseDelay
	var lastErr error
	for attempts < p.MaxAttempts {
		attempts++
		lastErr = op(ctx)
		if lastErr == nil {
			return attempts, nil
		}
		if p.NonRetryable != nil && p.NonRetryable(lastErr) {
			fmt.Printf("[Retry] %s attempt %d failed with terminal error: %v\n", label, attempts, lastErr)
			return attempts, lastErr
		}
		if attempts >= p.MaxAttempts {
			break
		}
		fmt.Printf("[Retry] %s attempt %d failed, retrying in %s: %v\n", label, attempts, delay, lastErr)
		if err := p.wait(ctx, delay); err != nil {
			return attempts, err
		}
		delay = time.Duration(float64(delay) * p.Multiplier)
	}
	return attempts, lastErr
}

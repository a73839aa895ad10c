package api

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig controls how failed node requests are retried.
type RetryConfig struct {
	// MaxRetries caps the number of retry attempts after the first try.
	MaxRetries int
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration
	// Multiplier grows the delay after each attempt.
	Multiplier float64
	// Jitter randomizes each delay by ±(Jitter × delay) so retrying
	// clients don't synchronize.
	Jitter float64
	// RetryableOn reports whether a status code is worth retrying.
	RetryableOn func(statusCode int) bool
}

// DefaultRetryConfig returns the retry configuration the client uses when
// no overrides are given: 3 attempts, 1s base, doubling to 30s, retrying
// on timeouts, rate limits, and 5xx responses.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.2,
		RetryableOn: func(statusCode int) bool {
			switch statusCode {
			case 408, 429, 500, 502, 503, 504:
				return true
			default:
				return false
			}
		},
	}
}

// ShouldRetry reports whether another attempt should be made for the given
// attempt count and response status.
func (r *RetryConfig) ShouldRetry(attempt int, statusCode int) bool {
	if attempt >= r.MaxRetries {
		return false
	}
	return r.RetryableOn(statusCode)
}

// Delay returns the jittered backoff delay for the given attempt.
func (r *RetryConfig) Delay(attempt int) time.Duration {
	delay := float64(r.BaseDelay) * math.Pow(r.Multiplier, float64(attempt))
	if delay > float64(r.MaxDelay) {
		delay = float64(r.MaxDelay)
	}

	if r.Jitter > 0 {
		jitterAmount := delay * r.Jitter
		delay = delay - jitterAmount + (rand.Float64() * 2 * jitterAmount)
	}

	return time.Duration(delay)
}

// Wait sleeps for the attempt's backoff delay, returning early with the
// context's error if it is cancelled first.
func (r *RetryConfig) Wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(r.Delay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

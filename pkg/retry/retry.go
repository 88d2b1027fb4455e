// Package retry runs an operation with capped exponential backoff. The
// store, the capability client and the message handlers share it.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// Jitter randomizes every delay by up to this fraction of it.
	Jitter float64
}

// Do calls fn until it succeeds, fails with an error retryable rejects, ctx
// ends or MaxAttempts calls were made, and returns the last error. A nil
// retryable retries every error. fn receives the zero based attempt.
func Do(ctx context.Context, cfg Config, retryable func(error) bool, fn func(attempt int) error) error {
	attempts := max(cfg.MaxAttempts, 1)
	policy := backoff.WithContext(backoff.WithMaxRetries(cfg.backOff(), uint64(attempts-1)), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		err := fn(attempt)
		attempt++
		if err != nil && retryable != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

// backOff doubles the delay after every attempt, starting at BaseDelay and
// capped at MaxDelay. Zero durations keep the library defaults.
func (c Config) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	if c.BaseDelay > 0 {
		b.InitialInterval = c.BaseDelay
	}
	if c.MaxDelay > 0 {
		b.MaxInterval = c.MaxDelay
	}
	b.Multiplier = 2
	b.RandomizationFactor = c.Jitter
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

package retry

import (
	"context"
	"math/rand"
	"time"

	"chatpush/internal/models"
)

// BackoffConfig contains configuration for exponential backoff
type BackoffConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	MaxAttempts  int
	Jitter       bool
}

// DefaultBackoffConfig returns a sensible default configuration
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		MaxAttempts:  5,
		Jitter:       true,
	}
}

// FromRetryConfig converts the JSON retry settings, doubling the delay per attempt
func FromRetryConfig(rc models.RetryConfig) BackoffConfig {
	return BackoffConfig{
		InitialDelay: time.Duration(rc.InitialBackoffMs) * time.Millisecond,
		MaxDelay:     time.Duration(rc.MaxBackoffMs) * time.Millisecond,
		Multiplier:   2.0,
		MaxAttempts:  rc.MaxAttempts,
		Jitter:       true,
	}
}

// Notify is called before waiting for the next attempt
type Notify func(attempt int, delay time.Duration, err error)

// Backoff implements exponential backoff with optional jitter
type Backoff struct {
	config BackoffConfig
	notify Notify
}

// NewBackoff creates a backoff. At least one attempt is always made and the
// multiplier never shrinks the delay.
func NewBackoff(config BackoffConfig) *Backoff {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.Multiplier < 1 {
		config.Multiplier = 1
	}
	if config.MaxDelay < config.InitialDelay {
		config.MaxDelay = config.InitialDelay
	}
	return &Backoff{config: config}
}

// OnRetry registers fn to observe failed attempts that will be retried
func (b *Backoff) OnRetry(fn Notify) *Backoff {
	b.notify = fn
	return b
}

// MaxAttempts returns how many times an operation is tried at most
func (b *Backoff) MaxAttempts() int {
	return b.config.MaxAttempts
}

// Retry runs operation until it succeeds, attempts run out or ctx ends
func (b *Backoff) Retry(ctx context.Context, operation func(context.Context) error) error {
	return b.RetryWithPredicate(ctx, operation, func(error) bool { return true })
}

// RetryWithPredicate is Retry that stops at the first error isRetryable rejects.
// That error, or the last one seen, is returned unchanged.
func (b *Backoff) RetryWithPredicate(ctx context.Context, operation func(context.Context) error, isRetryable func(error) bool) error {
	var lastErr error

	for attempt := 1; attempt <= b.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == b.config.MaxAttempts {
			break
		}

		delay := b.Delay(attempt)
		if b.notify != nil {
			b.notify(attempt, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// Delay returns the wait after the given failed attempt, capped at MaxDelay.
// With jitter the delay varies by up to 25% either way.
func (b *Backoff) Delay(attempt int) time.Duration {
	delay := float64(b.config.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= b.config.Multiplier
		if delay >= float64(b.config.MaxDelay) {
			break
		}
	}

	if b.config.Jitter {
		delay += (rand.Float64() - 0.5) * 0.5 * delay
	}

	if delay > float64(b.config.MaxDelay) {
		delay = float64(b.config.MaxDelay)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

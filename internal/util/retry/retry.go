package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrExhausted is returned (wrapped) when a Poll runs out of attempts.
var ErrExhausted = errors.New("retry budget exhausted")

// Config holds retry configuration.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Option is a functional option for retry configuration.
type Option func(*Config)

// WithExponentialBackoff executes the operation with exponential backoff retry.
// It retries the operation up to MaxRetries times, with exponentially increasing
// delays between attempts. Context cancellation is respected throughout.
//
// Errors wrapped with Fatal() are not retried.
func WithExponentialBackoff(ctx context.Context, operation func() error, opts ...Option) error {
	cfg := &Config{
		MaxRetries:   5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = cfg.InitialDelay
	eb.MaxInterval = cfg.MaxDelay
	eb.Multiplier = cfg.Multiplier
	eb.RandomizationFactor = 0
	eb.MaxElapsedTime = 0
	eb.Reset()

	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(cfg.MaxRetries)), ctx)

	attempts := 0
	fatal := false
	err := backoff.Retry(func() error {
		attempts++
		err := operation()
		if err != nil && IsFatal(err) {
			fatal = true
			return backoff.Permanent(err)
		}
		return err
	}, b)

	switch {
	case err == nil:
		return nil
	case fatal:
		return fmt.Errorf("fatal error (not retrying): %w", err)
	case ctx.Err() != nil:
		return fmt.Errorf("context cancelled after %d attempts: %w", attempts, ctx.Err())
	default:
		return fmt.Errorf("operation failed after %d retries: %w", attempts, err)
	}
}

// WithMaxRetries sets the maximum number of retries.
func WithMaxRetries(n int) Option {
	return func(c *Config) {
		c.MaxRetries = n
	}
}

// WithInitialDelay sets the initial delay between retries.
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		c.InitialDelay = d
	}
}

// Policy describes a fixed-interval polling loop.
type Policy struct {
	// Interval is the sleep between two attempts.
	Interval time.Duration

	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int

	// Retryable reports whether an error is a "not yet" condition worth another
	// attempt. A nil Retryable retries every non-fatal error.
	Retryable func(error) bool

	// Notify is called after a failed attempt that will be retried.
	Notify func(attempt int, err error)
}

// Poll runs op until it succeeds, returns a non-retryable error, the context
// ends, or MaxAttempts attempts have been made. Exhaustion is reported as an
// error wrapping both ErrExhausted and the last attempt's error.
func Poll(ctx context.Context, p Policy, op func(attempt int) error) error {
	if p.MaxAttempts < 1 {
		return Fatal(fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts))
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Interval), uint64(p.MaxAttempts-1)),
		ctx,
	)

	attempt := 0
	permanent := false
	err := backoff.RetryNotify(func() error {
		attempt++
		err := op(attempt)
		if err == nil {
			return nil
		}
		if IsFatal(err) || (p.Retryable != nil && !p.Retryable(err)) {
			permanent = true
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, _ time.Duration) {
		if p.Notify != nil {
			p.Notify(attempt, err)
		}
	})

	switch {
	case err == nil:
		return nil
	case permanent:
		return err
	case ctx.Err() != nil:
		return fmt.Errorf("cancelled after %d attempts: %w", attempt, ctx.Err())
	default:
		return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt, err)
	}
}

// FatalError wraps an error to mark it as fatal (non-retryable).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal marks an error as fatal (non-retryable).
// Operations that encounter fatal errors will not be retried.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal checks if an error is fatal (non-retryable).
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}

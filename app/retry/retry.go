// Package retry provides a bounded retry combinator driven by an explicit
// policy value, so call sites declare their attempt budget and backoff curve
// instead of interleaving timing logic with request code.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const DefaultMaxAttempts = 3

// PermanentError marks a failure as non-retryable; Do stops immediately and
// returns the wrapped error.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err so that Do aborts without consuming further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// DelayedError carries a server-specified minimum wait before the next
// attempt, e.g. the retry_after of a rate-limit response.
type DelayedError struct {
	Err   error
	Delay time.Duration
}

func (e *DelayedError) Error() string {
	return e.Err.Error()
}

func (e *DelayedError) Unwrap() error {
	return e.Err
}

// After wraps err with a minimum delay before the next attempt.
func After(err error, delay time.Duration) error {
	if err == nil {
		return nil
	}
	return &DelayedError{Err: err, Delay: delay}
}

// Policy describes how Do schedules attempts. The zero value means
// DefaultMaxAttempts attempts with an exponential backoff and a
// context-aware sleep.
type Policy struct {
	MaxAttempts int
	NewBackOff  func() backoff.BackOff
	Sleep       func(ctx context.Context, d time.Duration) error
}

// NewExponentialBackOff returns the default delay curve: 500ms initial,
// doubling, capped at 5s per wait. Total wait across a 3-attempt budget
// stays under two seconds.
func NewExponentialBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.Multiplier = 2.0
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 0
	return bo
}

// Do runs op up to the policy's attempt budget. A PermanentError aborts
// immediately; a DelayedError extends the next wait to at least its delay.
// The wait is a scheduled sleep honoring ctx, never a busy loop.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	newBackOff := p.NewBackOff
	if newBackOff == nil {
		newBackOff = NewExponentialBackOff
	}
	bo := newBackOff()

	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		var permanent *PermanentError
		if errors.As(err, &permanent) {
			return zero, permanent.Err
		}

		lastErr = err
		if attempt == maxAttempts {
			break
		}

		delay := bo.NextBackOff()
		if delay == backoff.Stop {
			break
		}

		var delayed *DelayedError
		if errors.As(err, &delayed) {
			lastErr = delayed.Err
			if delayed.Delay > delay {
				delay = delayed.Delay
			}
		}

		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}

	return zero, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

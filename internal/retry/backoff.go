// Package retry provides exponential backoff for callers that wait on a
// busy sink.  The sink itself never retries; waiting is a caller policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ── Permanent errors ─────────────────────────────────────────────────

// PermanentError wraps an error to signal that retrying will not help.
// Return [Permanent](err) from the operation function to stop retrying
// immediately.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err has been marked as permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// ── Backoff ──────────────────────────────────────────────────────────

// Defaults for waiting on a local endpoint: sessions are short, so the
// first retry comes quickly and the delay never grows past a second.
const (
	DefaultInitialDelay = 10 * time.Millisecond
	DefaultMaxDelay     = time.Second
	DefaultMultiplier   = 2.0
)

// Backoff implements exponential backoff with optional jitter.
type Backoff struct {
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the backoff duration.
	MaxDelay time.Duration
	// Multiplier increases the delay each attempt.
	Multiplier float64
	// MaxAttempts is the total number of tries including the first.
	// 0 retries until the context is cancelled.
	MaxAttempts int
	// Jitter adds ±25% randomisation so waiting callers do not retry
	// in lockstep.
	Jitter bool
	// Retryable, when set, decides which errors are worth another
	// attempt; anything else is returned as if it were Permanent.
	Retryable func(error) bool
}

// DefaultBackoff returns a backoff that waits indefinitely with jitter.
func DefaultBackoff() *Backoff {
	return &Backoff{
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		Multiplier:   DefaultMultiplier,
		Jitter:       true,
	}
}

// Do executes fn repeatedly until it succeeds, returns a permanent or
// non-retryable error, or the retry budget (attempts / context) is
// exhausted.
//
// The attempt parameter passed to fn is 1-based.
func (b *Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	delay := b.InitialDelay
	if delay <= 0 {
		delay = DefaultInitialDelay
	}
	multiplier := b.Multiplier
	if multiplier <= 0 {
		multiplier = DefaultMultiplier
	}
	maxDelay := b.MaxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}

	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return errors.Unwrap(err)
		}
		if b.Retryable != nil && !b.Retryable(err) {
			return err
		}
		if b.MaxAttempts > 0 && attempt >= b.MaxAttempts {
			return fmt.Errorf("gave up after %d attempts: %w", b.MaxAttempts, err)
		}

		wait := delay
		if b.Jitter {
			wait = addJitter(delay)
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-t.C:
		}

		delay = time.Duration(float64(delay) * multiplier)
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

// addJitter adds ±25% randomisation to a duration.
func addJitter(d time.Duration) time.Duration {
	quarter := float64(d) * 0.25
	delta := (rand.Float64() * 2 * quarter) - quarter
	result := float64(d) + delta
	return time.Duration(math.Max(result, float64(time.Millisecond)))
}

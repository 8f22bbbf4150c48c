package writer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// TransientGraphError wraps a write failure the caller should retry: a
// deadlock, a leader election, a connection drop mid-transaction. The
// underlying neo4j driver already retries its own session-level transient
// errors; this type covers failures that surface past that (e.g. the
// whole session failing to establish).
type TransientGraphError struct {
	Cause error
}

func (e *TransientGraphError) Error() string {
	return fmt.Sprintf("writer: transient graph error: %v", e.Cause)
}

func (e *TransientGraphError) Unwrap() error { return e.Cause }

// ConversionFailed reports a batch that could not be written after
// exhausting retries, or that failed for a non-transient reason (a
// malformed Cypher parameter, a constraint violation). The engine surfaces
// this as the batch's terminal FAILED state.
type ConversionFailed struct {
	Cause   error
	Attempt int
}

func (e *ConversionFailed) Error() string {
	return fmt.Sprintf("writer: batch failed after %d attempt(s): %v", e.Attempt, e.Cause)
}

func (e *ConversionFailed) Unwrap() error { return e.Cause }

// RetryPolicy configures [Retry]'s bounded exponential backoff.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy is a bounded exponential backoff for transient
// graph-write failures.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 5,
	BaseDelay:   200 * time.Millisecond,
	MaxDelay:    10 * time.Second,
}

// Retry runs fn up to policy.MaxAttempts times, sleeping with exponential
// backoff between attempts that fail with a [TransientGraphError]. A
// non-transient error returns immediately, wrapped in [ConversionFailed].
// Exhausting retries on a transient error also returns a [ConversionFailed]
// wrapping the last cause.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		var transient *TransientGraphError
		if !errors.As(err, &transient) {
			return &ConversionFailed{Cause: err, Attempt: attempt}
		}
		if attempt == policy.MaxAttempts {
			break
		}

		delay := backoff(policy, attempt)
		select {
		case <-ctx.Done():
			return &ConversionFailed{Cause: ctx.Err(), Attempt: attempt}
		case <-time.After(delay):
		}
	}
	return &ConversionFailed{Cause: lastErr, Attempt: policy.MaxAttempts}
}

func backoff(policy RetryPolicy, attempt int) time.Duration {
	d := time.Duration(float64(policy.BaseDelay) * math.Pow(2, float64(attempt-1)))
	if d > policy.MaxDelay {
		return policy.MaxDelay
	}
	return d
}

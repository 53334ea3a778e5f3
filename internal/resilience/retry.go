// Package resilience provides the shared retry policy for upstream calls.
package resilience

import (
	"context"
	"time"
)

// Outcome classifies an attempt error and decides how the retry loop
// proceeds.
type Outcome int

const (
	// Retry means the error is transient; try again after the delay.
	Retry Outcome = iota
	// RateLimit means the upstream signalled throttling. The loop stops
	// immediately and the error propagates so the caller can escalate;
	// retrying in place would only extend the block.
	RateLimit
	// Fail means the error is final for this operation.
	Fail
)

// Policy controls the retry loop: a fixed attempt budget with a fixed
// inter-attempt delay and a classifier deciding the outcome per error.
type Policy struct {
	// MaxAttempts is the total number of attempts including the first.
	// Default: 3.
	MaxAttempts int

	// Delay is the fixed pause between attempts. Default: 1s.
	Delay time.Duration

	// Classify maps an attempt error to an Outcome. If nil, every error
	// is retried until the budget runs out.
	Classify func(err error) Outcome

	// OnRetry is called before each retry sleep with the attempt number
	// that just failed and its error.
	OnRetry func(attempt int, err error)
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.Delay <= 0 {
		p.Delay = time.Second
	}
	return p
}

// Do executes fn under the policy. Context cancellation stops the loop
// immediately; rate-limit classified errors propagate without being
// retried.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal executes fn returning a value under the policy. Same semantics as
// Do but preserves the successful return value.
func DoVal[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, lastErr
		}

		if p.Classify != nil {
			switch p.Classify(lastErr) {
			case RateLimit, Fail:
				return zero, lastErr
			}
		}

		if attempt >= p.MaxAttempts {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, lastErr)
		}

		timer := time.NewTimer(p.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}

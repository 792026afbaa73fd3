package aggregation

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 500 * time.Millisecond
)

// retryPolicy wraps store calls in bounded retry with exponential backoff.
// It lives at the collaborator boundary: the in-memory fold never retries.
type retryPolicy struct {
	attempts  int
	baseDelay time.Duration
}

func (p retryPolicy) normalized() retryPolicy {
	n := p
	if n.attempts <= 0 {
		n.attempts = defaultRetryAttempts
	}
	if n.baseDelay <= 0 {
		n.baseDelay = defaultRetryBaseDelay
	}
	return n
}

// backOff builds a single-use policy: exponential delays starting at
// baseDelay, at most attempts tries in total, cut short by ctx. The attempt
// cap is the only bound, so the elapsed-time ceiling stays disabled.
func (p retryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.baseDelay
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.attempts-1)), ctx)
}

// do runs fn until it succeeds, the attempts are exhausted, or ctx ends.
// A context that is already done skips the first attempt too.
func (p retryPolicy) do(ctx context.Context, operation string, fn func() error) error {
	p = p.normalized()
	if err := ctx.Err(); err != nil {
		return err
	}

	attempt := 0
	return backoff.RetryNotify(
		func() error {
			attempt++
			return fn()
		},
		p.backOff(ctx),
		func(err error, next time.Duration) {
			slog.Warn("[AggregationRun] Store call failed, retrying",
				"operation", operation,
				"attempt", attempt,
				"next_delay", next,
				"error", err,
			)
		},
	)
}

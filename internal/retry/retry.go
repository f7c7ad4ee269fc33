// internal/retry/retry.go
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/sarawan-tech/products-backend/internal/apperrors"
)

const maxAttempts = 5

// Policy is a reusable retry-with-backoff wrapper for calls that talk to the
// database or an external service. Request-level failures (validation,
// not-found, forbidden, not-acceptable, upstream-data) are never retried.
type Policy struct {
	InitialInterval time.Duration
	MaxAttempts     uint64
}

func DefaultPolicy() Policy {
	return Policy{
		InitialInterval: 100 * time.Millisecond,
		MaxAttempts:     maxAttempts,
	}
}

func (p Policy) Do(ctx context.Context, op func() error) error {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.InitialInterval

	wrapped := func() error {
		err := op()
		if err != nil && !apperrors.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(
		wrapped,
		backoff.WithContext(backoff.WithMaxRetries(expo, p.MaxAttempts-1), ctx),
	)
}

// Do runs op under the default policy.
func Do(ctx context.Context, op func() error) error {
	return DefaultPolicy().Do(ctx, op)
}

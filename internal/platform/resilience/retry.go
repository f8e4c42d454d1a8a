package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Retry runs op with exponential backoff while retryable(err) holds, up to
// cfg.MaxAttempts attempts. Other errors are returned immediately.
func Retry[T any](ctx context.Context, cfg RetryConfig, retryable func(error) bool, onRetry func(error, time.Duration), op func() (T, error)) (T, error) {
	cfg = NormalizeRetryConfig(cfg)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = cfg.InitialInterval
	policy.MaxInterval = cfg.MaxInterval

	opts := []backoff.RetryOption{
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(cfg.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
	}
	if onRetry != nil {
		opts = append(opts, backoff.WithNotify(onRetry))
	}

	out, err := backoff.Retry(ctx, func() (T, error) {
		out, err := op()
		if err != nil && (retryable == nil || !retryable(err)) {
			return out, backoff.Permanent(err)
		}
		return out, err
	}, opts...)

	// the attempt cap is checked before permanent errors are unwrapped
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return out, permanent.Unwrap()
	}
	return out, err
}

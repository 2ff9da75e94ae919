package gemini

import (
	"context"
	"time"
)

// maxAttempts is the total attempt budget per completion call.
const maxAttempts = 3

// BackoffPolicy returns the delay to wait after failed attempt n (1-based).
type BackoffPolicy func(attempt int) time.Duration

// LinearBackoff waits attempt * base: 1s after the first failure, 2s after the
// second, and so on for base = 1s.
func LinearBackoff(base time.Duration) BackoffPolicy {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * base
	}
}

// retryDo runs fn up to attempts times, sleeping per policy between failures.
// The last attempt's error is propagated verbatim. sleep is injectable so
// tests can observe the induced delays without waiting.
func retryDo[T any](ctx context.Context, attempts int, policy BackoffPolicy, sleep func(context.Context, time.Duration) error, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err
		if attempt < attempts {
			if serr := sleep(ctx, policy(attempt)); serr != nil {
				return zero, serr
			}
		}
	}
	return zero, lastErr
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package legifrance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// DefaultRetryDelays returns the backoff delays for retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// StatusError is returned for unsuccessful HTTP replies.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("legifrance %s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Transient reports whether the request may succeed if retried.
func (e *StatusError) Transient() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isTransient(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Transient()
}

// withRetry calls fn until it succeeds, fails with a non-transient error,
// or the delays are exhausted. onRetry, if not nil, is called before each
// retry.
func withRetry[T any](ctx context.Context, delays []time.Duration, onRetry func(attempt int, err error), fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !isTransient(err) || attempt >= maxAttempts-1 {
			break
		}

		if onRetry != nil {
			onRetry(attempt+2, err)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}
	return zero, lastErr
}

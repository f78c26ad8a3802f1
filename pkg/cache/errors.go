package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound reports a resource the upstream API does not have.
	ErrNotFound = errors.New("not found")

	// ErrNetwork reports a transport failure or 5xx response.
	ErrNetwork = errors.New("network error")

	// ErrCacheMiss reports a key with no live entry.
	ErrCacheMiss = errors.New("cache miss")
)

// RetryableError marks an error as transient. Integration clients wrap
// timeouts and 5xx responses with it so RetryWithBackoff can tell them
// apart from permanent failures like a 404.
type RetryableError struct{ Err error }

// Error returns the wrapped error's message.
func (e *RetryableError) Error() string { return e.Err.Error() }

// Unwrap returns the wrapped error.
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as transient. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err carries the transient marker.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryWithBackoff runs fn up to three times, doubling the wait between
// attempts starting at one second. Errors without the transient marker
// return immediately; a canceled context cuts the wait short.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	const maxAttempts = 3

	wait := time.Second
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !IsRetryable(err) {
			return err
		}
		if attempt == maxAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			wait *= 2
		}
	}
}

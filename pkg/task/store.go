package task

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a task does not exist.
var ErrNotFound = errors.New("task not found")

// Store persists tasks. Save writes the full record and must be durable
// before it returns.
type Store interface {
	Get(ctx context.Context, id string) (*Task, error)
	Save(ctx context.Context, t *Task) error
	// Recent returns tasks ordered newest first.
	Recent(ctx context.Context, offset, limit int) ([]*Task, error)
	Close() error
}

// RetryableError marks a store error as transient.
type RetryableError struct{ Err error }

// Retryable wraps err as a RetryableError.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is wrapped with RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Lookup retry policy for GetWithRetry.
const (
	DefaultGetAttempts = 10
	DefaultGetDelay    = 100 * time.Millisecond
)

// GetWithRetry fetches a task, retrying transient store errors with a fixed
// delay. Non-retryable errors, including ErrNotFound, return immediately.
func GetWithRetry(ctx context.Context, s Store, id string, attempts int, delay time.Duration) (*Task, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		t, err := s.Get(ctx, id)
		if err == nil {
			return t, nil
		}
		if lastErr = err; !IsRetryable(err) {
			return nil, err
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil, lastErr
}

package common

import (
	"context"
	"fmt"
	"time"
)

// Retry runs fn up to attempts times, doubling the wait after each failure.
// It returns the last error once attempts are exhausted, or the context error
// if the context ends while waiting.
func Retry(ctx context.Context, attempts int, backoff time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := backoff
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := fn(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == attempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry aborted after attempt %d: %w", attempt, ctx.Err())
		}
		delay *= 2
	}
	return lastErr
}

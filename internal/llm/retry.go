package llm

import (
	"context"
	"errors"
	"fmt"
)

// DefaultAttempts is the number of tries for a generation step: the first
// call plus one retry.
const DefaultAttempts = 2

// ErrRetriesExhausted wraps the last error once every attempt has failed.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Retry calls fn until it succeeds or attempts calls have failed. The attempt
// number (starting at 1) is passed to fn. onRetry, when set, is called with
// the failed attempt's error before each retry.
func Retry(ctx context.Context, attempts int, fn func(attempt int) error, onRetry func(attempt int, err error)) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if attempt < attempts && onRetry != nil {
			onRetry(attempt, lastErr)
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, lastErr)
}

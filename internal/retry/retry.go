package retry

import (
	"context"
	"fmt"
	"time"
)

type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool // Linear backoff: attempt * Delay

	// OnFailure is called for every failed attempt except the last one.
	OnFailure func(attempt int, err error)
}

// WithRetry runs fn until it succeeds or MaxAttempts is reached.
// fn receives the 1-based attempt number. The last failure is returned
// wrapped, so callers can still inspect it with errors.As.
func WithRetry(ctx context.Context, config RetryConfig, fn func(attempt int) error) error {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}

	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == config.MaxAttempts {
			return fmt.Errorf("failed after %d attempts: %w", config.MaxAttempts, err)
		}

		if config.OnFailure != nil {
			config.OnFailure(attempt, err)
		}

		delay := config.Delay
		if config.Backoff {
			delay = time.Duration(attempt) * config.Delay
		}
		if delay <= 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

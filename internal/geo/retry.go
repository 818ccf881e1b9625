package geo

import (
	"context"
	"time"
)

// retryWithBackoff повторяет операцию с экспоненциальной задержкой,
// пока retryable считает ошибку временной.
func retryWithBackoff(ctx context.Context, op func() error, maxAttempts int, baseDelay time.Duration, retryable func(error) bool) error {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op()
		if lastErr == nil || !retryable(lastErr) || attempt == maxAttempts {
			return lastErr
		}

		delay := baseDelay << (attempt - 1)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

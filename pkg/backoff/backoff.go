// Package backoff provides retry helpers with exponential delays.
package backoff

import (
	"context"
	"math"
	"time"
)

// Delay returns the exponential delay for a given attempt, clamped to max.
// Attempt 1 returns initial, attempt 2 returns initial*2, and so on.
func Delay(attempt int, initial, max time.Duration) time.Duration {
	if attempt < 1 {
		return initial
	}
	d := float64(initial) * math.Pow(2.0, float64(attempt-1))
	if d > float64(max) {
		return max
	}
	return time.Duration(d)
}

// Retry calls fn up to attempts times, sleeping an exponential delay between
// failures. It returns nil on the first success, the last error once the
// attempts are spent, or the context error if the context ends while waiting.
func Retry(ctx context.Context, attempts int, initial, max time.Duration, fn func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		select {
		case <-time.After(Delay(attempt, initial, max)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

package util

import (
	"context"
	"fmt"
	"time"
)

// RetryContext calls f until it succeeds, at most maxRetries+1 times, waiting
// d between attempts. It gives up early when ctx is done.
func RetryContext[T any](ctx context.Context, f func(context.Context) (T, error), maxRetries int, d time.Duration) (v T, err error) {
	for i := 0; i <= maxRetries; i++ {
		if v, err = f(ctx); err == nil {
			return v, nil
		} else if i == maxRetries {
			break
		}
		Debugf(ctx, "retry %d/%d: %v", i+1, maxRetries, err)
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return *new(T), ctx.Err()
		case <-t.C:
		}
	}
	return v, fmt.Errorf("max retries reached: %w", err)
}

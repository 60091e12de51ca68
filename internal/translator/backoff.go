package translator

import (
	"context"
	"time"
)

// SleepFunc waits for d or until ctx is done, whichever comes first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the SleepFunc used outside tests.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// backoff returns the delay before retry n (n >= 1): base, 2×base, 4×base…
func backoff(base time.Duration, n int) time.Duration {
	if n < 1 {
		return 0
	}
	if n > 16 {
		n = 16
	}
	return base << (n - 1)
}

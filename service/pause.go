package service

import (
	"context"
	"time"
)

// PauseFunc suspends the current request between two upstream calls
// injected so the pacing policy is testable without real wall-clock waits
type PauseFunc func(ctx context.Context, d time.Duration) error

// waitFor is the default pause backed by a timer
func waitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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

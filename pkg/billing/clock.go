package billing

import (
	"context"
	"time"
)

// Clock abstracts wall-clock access so the scheduler's calendar boundary can
// be driven by a fake in tests.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is canceled, in which case it returns
	// ctx.Err(). A nil return means the full duration elapsed.
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

// SystemClock returns a Clock backed by the time package.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

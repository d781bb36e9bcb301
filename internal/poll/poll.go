// Package poll turns eventually-complete remote work into a single result
// by fetching at a fixed interval until an acceptable value shows up.
package poll

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrTimeout is returned when the attempt budget runs out. The remote work
// may still finish after the caller stops waiting.
var ErrTimeout = errors.New("timed out waiting for result")

// Options bound a polling loop.
type Options struct {
	Interval    time.Duration
	MaxAttempts int

	// OnAttempt is called before each fetch with the 1-based attempt.
	OnAttempt func(attempt, maxAttempts int)

	// Sleep waits between attempts. It defaults to a timer that honors ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Retry waits one interval, fetches and repeats until accept returns true
// or MaxAttempts fetches have been made. A fetch error ends the loop.
// Only one fetch is in flight at a time.
func Retry[T any](ctx context.Context, opts Options, fetch func(context.Context) (T, error), accept func(T) bool) (T, error) {
	var zero T
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := sleep(ctx, opts.Interval); err != nil {
			return zero, err
		}
		if opts.OnAttempt != nil {
			opts.OnAttempt(attempt, opts.MaxAttempts)
		}

		v, err := fetch(ctx)
		if err != nil {
			return zero, err
		}
		if accept(v) {
			return v, nil
		}
	}
	return zero, errors.Wrapf(ErrTimeout, "after %d attempts", opts.MaxAttempts)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

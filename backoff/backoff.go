// Package backoff implements the exponential reconnect backoff policy:
// fixed initial delay, doubling on each failure, capped, reset on
// success. No jitter by default — deterministic for tests; callers that
// want jitter can wrap Next's result themselves.
package backoff

import (
	"context"
	"time"

	"github.com/codewanderer42820/marketfeed/constants"
)

// Backoff tracks the current delay for one reconnecting session.
type Backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

// New returns a Backoff seeded at the process defaults.
func New() *Backoff {
	return &Backoff{
		initial: constants.BackoffInitial,
		max:     constants.BackoffMax,
		current: constants.BackoffInitial,
	}
}

// Reset returns the backoff to its initial delay, called after a
// successful FastConnect.
func (b *Backoff) Reset() {
	b.current = b.initial
}

// Next returns the delay to wait before the next attempt and doubles the
// internal counter, capped at max.
func (b *Backoff) Next() time.Duration {
	d := b.current
	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return d
}

// Wait sleeps for Next(), returning early with ctx.Err() if ctx is
// cancelled first.
func (b *Backoff) Wait(ctx context.Context) error {
	d := b.Next()
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package utils

import (
	"context"
	"time"
)

// Clock abstracts time so the approval watcher can be tested without
// real delays.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock is the wall clock used outside of tests.
var RealClock Clock = realClock{}

// Watcher re-runs a check on a fixed interval until it reports done,
// the timeout lapses, or the context is cancelled. It backs the
// pending-approval long-poll: the check re-reads the profile status
// from the database each tick, never from a cached decision.
type Watcher struct {
	Clock    Clock
	Interval time.Duration
}

func NewWatcher(interval time.Duration) *Watcher {
	return &Watcher{Clock: RealClock, Interval: interval}
}

// Wait returns (true, nil) when the check reported done, (false, nil)
// when the timeout lapsed first, and a non-nil error if the check
// failed or the context was cancelled.
func (w *Watcher) Wait(ctx context.Context, timeout time.Duration, check func() (bool, error)) (bool, error) {
	deadline := w.Clock.Now().Add(timeout)
	for {
		done, err := check()
		if err != nil {
			return false, err
		}
		if done {
			return true, nil
		}
		if !w.Clock.Now().Before(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-w.Clock.After(w.Interval):
		}
	}
}

// Package backoff implements the layered wait used by every blocking operation
// of the runtime: a bounded busy spin, then yielding the processor, then
// sleeping. The thresholds are injectable so tests and latency sensitive
// deployments can trade CPU for wake-up latency.
package backoff

import (
	"context"
	"runtime"
	"time"

	cbackoff "github.com/cenkalti/backoff/v4"
)

const (
	DefaultSpinCycles       = 1_000
	DefaultYieldCycles      = 2_000_000
	DefaultSleepInterval    = 20 * time.Millisecond
	DefaultMaxSleepInterval = 20 * time.Millisecond
)

// Policy creates a Waiter for each blocking wait. Waiters carry the cycle
// count of a single wait and must not be shared between goroutines.
type Policy interface {
	Waiter() Waiter
}

type Waiter interface {
	// Pause blocks for one step of the backoff. It returns the context error
	// if ctx is done before or during the pause.
	Pause(ctx context.Context) error
}

// Tiered is the spin/yield/sleep policy. The sleep tier grows exponentially
// from SleepInterval up to MaxSleepInterval; equal values give a constant sleep.
type Tiered struct {
	SpinCycles       uint64
	YieldCycles      uint64
	SleepInterval    time.Duration
	MaxSleepInterval time.Duration
}

var _ Policy = (*Tiered)(nil)

// Default returns the policy matching the runtime defaults.
func Default() *Tiered {
	return &Tiered{
		SpinCycles:       DefaultSpinCycles,
		YieldCycles:      DefaultYieldCycles,
		SleepInterval:    DefaultSleepInterval,
		MaxSleepInterval: DefaultMaxSleepInterval,
	}
}

func (t *Tiered) Waiter() Waiter {
	return &tieredWaiter{policy: *t}
}

type tieredWaiter struct {
	policy Tiered
	cycle  uint64
	sleep  cbackoff.BackOff
}

func (w *tieredWaiter) Pause(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.cycle++
	switch {
	case w.cycle <= w.policy.SpinCycles:
		// spinning: the caller re-checks its condition right away
		return nil
	case w.cycle <= w.policy.SpinCycles+w.policy.YieldCycles:
		runtime.Gosched()
		return nil
	}

	if w.sleep == nil {
		w.sleep = w.newSleep()
	}

	timer := time.NewTimer(w.sleep.NextBackOff())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Tier reports which tier the next Pause will use. It is meant for diagnostics.
func (w *tieredWaiter) Tier() string {
	next := w.cycle + 1
	switch {
	case next <= w.policy.SpinCycles:
		return "spin"
	case next <= w.policy.SpinCycles+w.policy.YieldCycles:
		return "yield"
	default:
		return "sleep"
	}
}

func (w *tieredWaiter) newSleep() cbackoff.BackOff {
	initial := w.policy.SleepInterval
	if initial <= 0 {
		initial = DefaultSleepInterval
	}
	maxInterval := w.policy.MaxSleepInterval
	if maxInterval < initial {
		maxInterval = initial
	}
	if maxInterval == initial {
		return cbackoff.NewConstantBackOff(initial)
	}

	return cbackoff.NewExponentialBackOff(
		cbackoff.WithInitialInterval(initial),
		cbackoff.WithMaxInterval(maxInterval),
		cbackoff.WithRandomizationFactor(0),
		cbackoff.WithMaxElapsedTime(0),
	)
}

// Until pauses through a fresh waiter of p until done reports true.
func Until(ctx context.Context, p Policy, done func() bool) error {
	if done() {
		return nil
	}
	w := p.Waiter()
	for !done() {
		if err := w.Pause(ctx); err != nil {
			return err
		}
	}
	return nil
}

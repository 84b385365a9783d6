// Package clock abstracts wall-clock time so polling loops and expiry checks
// can be tested against simulated time instead of real seconds.
package clock

import (
	"context"
	"time"
)

// Clock supplies the current time and cancellable sleeps.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// Real is the production Clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fake is a deterministic Clock for tests. Sleep advances the fake time
// immediately instead of blocking.
type Fake struct {
	Current time.Time
	Slept   []time.Duration
}

func NewFake(start time.Time) *Fake { return &Fake{Current: start} }

func (f *Fake) Now() time.Time { return f.Current }

func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.Current = f.Current.Add(d)
	f.Slept = append(f.Slept, d)
	return nil
}

// Package wait provides the context-aware pause used between retries and
// while the VPN client settles.
package wait

import (
	"context"
	"time"
)

// SleepFunc pauses for d or until ctx is done, whichever comes first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real-time SleepFunc.
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

// Recorder is a SleepFunc stand-in that records requested durations
// without waiting.
type Recorder struct {
	Slept []time.Duration
}

// Sleep records d and returns ctx.Err().
func (r *Recorder) Sleep(ctx context.Context, d time.Duration) error {
	r.Slept = append(r.Slept, d)
	return ctx.Err()
}

// Total returns the sum of recorded durations.
func (r *Recorder) Total() time.Duration {
	var total time.Duration
	for _, d := range r.Slept {
		total += d
	}
	return total
}

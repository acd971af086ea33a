package timing

import (
	"log/slog"
	"time"
)

// AdaptiveLimiter uses precise timing with drift compensation.
// Combines sleep for efficiency with busy-waiting for accuracy.
type AdaptiveLimiter struct {
	period    time.Duration
	next      time.Time
	started   time.Time
	iteration int64
}

func NewAdaptiveLimiter(period time.Duration) *AdaptiveLimiter {
	now := time.Now()
	return &AdaptiveLimiter{
		period:  period,
		next:    now,
		started: now,
	}
}

func (a *AdaptiveLimiter) WaitForNextFrame() {
	now := time.Now()
	sleepTime := a.next.Sub(now)

	if sleepTime > 0 {
		if sleepTime >= 2*time.Millisecond {
			time.Sleep(sleepTime - time.Millisecond)
		}
		for time.Now().Before(a.next) {
			// spin out the last millisecond
		}
	} else if sleepTime < -5*time.Millisecond {
		// too far behind to catch up, start over from now
		a.next = now
	}

	a.next = a.next.Add(a.period)
	a.iteration++

	if a.iteration%60 == 0 {
		actual := time.Now()
		drift := actual.Sub(a.next)

		if drift.Abs() > 10*time.Millisecond {
			a.next = a.next.Add(drift / 10)
			elapsed := actual.Sub(a.started)
			slog.Debug("Frame timing drift correction",
				"drift_ms", drift.Milliseconds(),
				"fps", float64(a.iteration)/elapsed.Seconds())
		}
	}
}

func (a *AdaptiveLimiter) Reset() {
	now := time.Now()
	a.next = now
	a.started = now
	a.iteration = 0
}

func (a *AdaptiveLimiter) Stop() {}

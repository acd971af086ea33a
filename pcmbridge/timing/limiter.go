package timing

import (
	"math"
	"time"
)

// Limiter paces a loop to a fixed period.
type Limiter interface {
	// WaitForNextFrame blocks until it's time for the next period.
	// Returns immediately if timing is behind schedule.
	WaitForNextFrame()

	// Reset resets the timing state, useful after pauses.
	Reset()

	// Stop releases any timer held by the limiter.
	Stop()
}

// NewNoOpLimiter returns a limiter that doesn't limit (speed-up and offline rendering).
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextFrame() {}
func (n *noOpLimiter) Reset()            {}
func (n *noOpLimiter) Stop()             {}

// Emulated video timing. Audio is produced once per video frame.
const (
	CyclesPerFrame = 70224
	CPUFrequency   = 4194304
)

// TargetFPS calculates the emulated frame rate.
func TargetFPS() float64 {
	return float64(CPUFrequency) / float64(CyclesPerFrame)
}

// FrameDuration returns the target duration of a single video frame.
func FrameDuration() time.Duration {
	return time.Duration(float64(time.Second) / TargetFPS())
}

// SamplesPerFrame returns how many stereo frames of audio one video frame
// produces at rate, rounded to the nearest frame.
func SamplesPerFrame(rate int) int {
	return int(math.Round(float64(rate) / TargetFPS()))
}

// BufferPeriod returns how long frames of audio last at rate.
func BufferPeriod(frames, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(int64(frames) * int64(time.Second) / int64(rate))
}

// Scale stretches period for a throttle percentage; 100 is native speed.
// A throttle of 0 leaves the period unchanged.
func Scale(period time.Duration, throttle uint16) time.Duration {
	if throttle == 0 {
		return period
	}
	return time.Duration(float64(period) * 100 / float64(throttle))
}

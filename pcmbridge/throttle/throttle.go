package throttle

import (
	"math"
	"time"
)

// Channels is the number of interleaved channels in a sample frame.
const Channels = 2

// BufferDuration is how much audio the sink ring holds.
const BufferDuration = 100 * time.Millisecond

// Inputs are everything the wait-vs-drop decision depends on.
type Inputs struct {
	// Running is false while emulation is stopped or the sink is shutting down.
	Running bool
	// SpeedUp requests running as fast as possible.
	SpeedUp bool
	// Throttle is the target speed in percent of native, 0 means unthrottled.
	Throttle uint16
	// LinkActive is set when an external link already paces emulation.
	LinkActive bool
}

// ShouldWait reports whether the producer should block for the consumer.
// When it is false excess samples are dropped instead: blocking would either
// stall a link that paces itself or defeat an explicit fast-forward.
func ShouldWait(in Inputs) bool {
	return in.Running && !in.SpeedUp && in.Throttle != 0 && !in.LinkActive
}

// EffectiveRate returns the device sample rate for a native rate at the given
// throttle. With throttle 0 the native rate is used and excess audio is dropped.
func EffectiveRate(native int, throttle uint16) int {
	if throttle == 0 {
		return native
	}
	return int(float64(native) * (float64(throttle) / 100.0))
}

// BufferElements returns the ring size in elements needed to hold d of
// stereo audio at rate.
func BufferElements(rate int, d time.Duration) int {
	return int(math.Ceil(d.Seconds() * float64(rate) * Channels))
}

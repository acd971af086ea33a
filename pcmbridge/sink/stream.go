package sink

import (
	"log/slog"

	"github.com/valerio/go-pcmbridge/pcmbridge/throttle"
)

// Write queues interleaved stereo samples for playback. A trailing partial
// frame is ignored. Write resumes a paused device, then copies as much as
// fits; for the rest it either blocks until the consumer frees space or drops
// it, as the throttle policy decides. It does nothing when uninitialized.
func (s *Sink) Write(samples []int16) {
	st := s.stream.Load()
	if st == nil {
		return
	}

	if !st.playing.Load() {
		if err := s.Resume(); err != nil {
			slog.Warn("Failed to resume audio device", "error", err)
		}
	}

	samples = samples[:len(samples)/throttle.Channels*throttle.Channels]
	if len(samples) == 0 {
		return
	}

	for {
		var accepted int
		st.gate.Locked(func() {
			accepted = min(len(samples), st.ring.Available()/throttle.Channels*throttle.Channels)
			st.ring.Write(samples[:accepted])
		})
		samples = samples[accepted:]
		s.written.Add(uint64(accepted / throttle.Channels))
		st.gate.SignalAvailable()

		if len(samples) == 0 {
			return
		}

		if !s.shouldWait(st) || !st.gate.WaitRead() {
			s.dropped.Add(uint64(len(samples) / throttle.Channels))
			return
		}
		s.waits.Add(1)
	}
}

// Read fills buf with the oldest buffered samples and silence after them.
// It is the device callback: it never blocks unless the ring is empty and
// the throttle policy says to wait for the producer, and only whole frames
// are consumed.
func (s *Sink) Read(buf []int16) {
	clear(buf)
	frames := len(buf) / throttle.Channels
	if frames == 0 {
		return
	}

	st := s.stream.Load()
	if st == nil || !s.isRunning(st) {
		s.silent.Add(uint64(frames))
		return
	}

	var used int
	st.gate.Locked(func() { used = st.ring.Used() })
	if used == 0 {
		s.underrun.Add(1)
		if !s.shouldWait(st) || !st.gate.WaitAvailable() {
			s.silent.Add(uint64(frames))
			return
		}
	}

	var n int
	st.gate.Locked(func() {
		n = min(len(buf), st.ring.Used()) / throttle.Channels * throttle.Channels
		st.ring.Read(buf[:n])
	})
	st.gate.SignalRead()

	s.read.Add(uint64(n / throttle.Channels))
	s.silent.Add(uint64(frames - n/throttle.Channels))
}

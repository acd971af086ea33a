// Package machine runs the emulation loop that feeds an audio output.
//
// Each iteration produces one video frame worth of audio and writes it out.
// While sound is available the output paces the loop through backpressure;
// without sound a frame limiter takes over so throttle still holds.
package machine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/valerio/go-pcmbridge/pcmbridge/timing"
)

// pausePoll is how often a paused machine checks for resume or cancellation.
const pausePoll = 10 * time.Millisecond

// Source generates interleaved stereo frames at its native rate.
type Source interface {
	Rate() int
	Generate(dst []int16)
}

// Output receives the generated audio. Active reports whether writes
// currently reach a device; it can turn false mid-run when a reopen fails.
type Output interface {
	Init(nativeRate int) error
	Active() bool
	Write(samples []int16)
	Pause() error
	Deinit()
}

// Settings are the speed options the loop reads every frame.
type Settings interface {
	Throttle() uint16
	SpeedUp() bool
}

type Option func(*Machine)

// WithMaxFrames stops Run after n frames, 0 runs until cancelled.
func WithMaxFrames(n uint64) Option {
	return func(m *Machine) { m.maxFrames = n }
}

// WithLimiter replaces the frame limiter used when no audio paces the loop.
func WithLimiter(newLimiter func(period time.Duration) timing.Limiter) Option {
	return func(m *Machine) { m.newLimiter = newLimiter }
}

type Machine struct {
	src        Source
	settings   Settings
	maxFrames  uint64
	newLimiter func(period time.Duration) timing.Limiter

	frame   []int16
	running atomic.Bool
	paused  atomic.Bool
	frames  atomic.Uint64
}

func New(src Source, settings Settings, opts ...Option) *Machine {
	m := &Machine{
		src:      src,
		settings: settings,
		newLimiter: func(period time.Duration) timing.Limiter {
			return timing.NewAdaptiveLimiter(period)
		},
		frame: make([]int16, timing.SamplesPerFrame(src.Rate())*2),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Running reports whether emulation is advancing. Audio outputs play
// silence and never block the loop while it is false.
func (m *Machine) Running() bool {
	return m.running.Load() && !m.paused.Load()
}

// Frames returns how many frames have been emulated.
func (m *Machine) Frames() uint64 {
	return m.frames.Load()
}

func (m *Machine) Paused() bool {
	return m.paused.Load()
}

// Pause stops emulation at the next frame boundary.
func (m *Machine) Pause() {
	m.paused.Store(true)
}

func (m *Machine) Resume() {
	m.paused.Store(false)
}

// TogglePause flips the paused state and returns the new one.
func (m *Machine) TogglePause() bool {
	for {
		old := m.paused.Load()
		if m.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// RunUntilFrame emulates one frame and returns its audio. The slice is
// reused by the next call.
func (m *Machine) RunUntilFrame() []int16 {
	m.src.Generate(m.frame)
	m.frames.Add(1)
	return m.frame
}

// Run emulates until ctx is done or the frame limit is reached. A failure
// to initialize out is logged and emulation continues without sound.
func (m *Machine) Run(ctx context.Context, out Output) error {
	audio := true
	if err := out.Init(m.src.Rate()); err != nil {
		slog.Warn("Audio unavailable, continuing without sound", "error", err)
		audio = false
	}
	defer out.Deinit()

	m.running.Store(true)
	defer m.running.Store(false)

	var limiter timing.Limiter
	var limiterThrottle uint16
	defer func() {
		if limiter != nil {
			limiter.Stop()
		}
	}()

	slog.Info("Emulation started", "rate", m.src.Rate(), "samples_per_frame", len(m.frame)/2, "audio", audio)

	wasPaused := false
	for {
		if err := ctx.Err(); err != nil {
			slog.Info("Emulation stopped", "frames", m.Frames())
			return nil
		}
		if m.maxFrames > 0 && m.Frames() >= m.maxFrames {
			slog.Info("Emulation completed", "frames", m.Frames())
			return nil
		}

		if m.paused.Load() {
			if !wasPaused {
				wasPaused = true
				if err := out.Pause(); err != nil {
					slog.Warn("Failed to pause audio", "error", err)
				}
				slog.Info("Emulation paused", "frames", m.Frames())
			}
			select {
			case <-ctx.Done():
			case <-time.After(pausePoll):
			}
			continue
		}
		if wasPaused {
			wasPaused = false
			if limiter != nil {
				limiter.Reset()
			}
			slog.Info("Emulation resumed")
		}

		// Write resumes a paused device on its own.
		out.Write(m.RunUntilFrame())

		if active := out.Active(); active != audio {
			audio = active
			if audio {
				slog.Info("Audio restored, pacing by device")
			} else {
				slog.Warn("Audio lost, pacing with frame limiter")
				if limiter != nil {
					limiter.Reset()
				}
			}
		}

		throttle := m.settings.Throttle()
		if audio || m.settings.SpeedUp() || throttle == 0 {
			continue
		}
		if limiter == nil || throttle != limiterThrottle {
			if limiter != nil {
				limiter.Stop()
			}
			limiter = m.newLimiter(timing.Scale(timing.FrameDuration(), throttle))
			limiterThrottle = throttle
		}
		limiter.WaitForNextFrame()
	}
}

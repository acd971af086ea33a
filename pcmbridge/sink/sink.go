// Package sink moves emulated audio from a producer goroutine into a host
// device's pull callback.
//
// One goroutine writes, the host's audio thread reads. Both sides meet in a
// ring buffer guarded by a gate; whether the writer blocks for the reader or
// drops what does not fit is decided per write by the throttle policy.
package sink

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valerio/go-pcmbridge/pcmbridge/backend"
	"github.com/valerio/go-pcmbridge/pcmbridge/gate"
	"github.com/valerio/go-pcmbridge/pcmbridge/ring"
	"github.com/valerio/go-pcmbridge/pcmbridge/throttle"
)

// DefaultGrace bounds how long Deinit waits for parked goroutines to leave.
const DefaultGrace = 100 * time.Millisecond

var (
	// ErrDeviceOpen is returned by Init when the host device cannot be opened.
	ErrDeviceOpen = errors.New("failed to open audio device")
	// ErrNoBackend is returned by Init when the sink has no backend.
	ErrNoBackend = errors.New("no audio backend")
)

// Settings exposes the options the sink reads. Implementations must not block.
type Settings interface {
	Throttle() uint16
	SpeedUp() bool
	LinkActive() bool
}

// State is the sink lifecycle state.
type State int32

const (
	Uninitialized State = iota
	Initialized
	Paused
	Running
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Paused:
		return "paused"
	case Running:
		return "running"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Stats counts what happened to audio passing through the sink, in frames.
type Stats struct {
	WrittenFrames uint64 // accepted into the ring
	DroppedFrames uint64 // discarded by writes that could not wait
	ReadFrames    uint64 // delivered to the device
	SilentFrames  uint64 // filled with silence instead of data
	Underruns     uint64 // reads that found the ring empty
	Waits         uint64 // times the producer was released after waiting
	Gate          gate.Stats
}

// stream is everything created by Init and torn down by Deinit.
type stream struct {
	ring    *ring.Ring
	gate    *gate.Gate
	device  backend.Device
	rate    int
	active  atomic.Bool // cleared during shutdown so no new waits are commanded
	playing atomic.Bool
}

// Sink is the bridge between one producer and one host consumer.
type Sink struct {
	backend  backend.Backend
	settings Settings
	running  func() bool

	bufferDuration time.Duration
	capacity       int // frames, overrides bufferDuration when > 0
	deviceSamples  int
	grace          time.Duration

	// mu serializes lifecycle changes, Write and Read never take it.
	mu         sync.Mutex
	stream     atomic.Pointer[stream]
	state      atomic.Int32
	nativeRate int
	throttle   atomic.Uint32

	written  atomic.Uint64
	dropped  atomic.Uint64
	read     atomic.Uint64
	silent   atomic.Uint64
	underrun atomic.Uint64
	waits    atomic.Uint64
}

// Option configures a Sink.
type Option func(*Sink)

// WithSettings sets where speed-up, link and the initial throttle are read from.
func WithSettings(settings Settings) Option {
	return func(s *Sink) { s.settings = settings }
}

// WithRunning injects the "emulation is running" flag. The sink plays
// silence and never waits while it reports false.
func WithRunning(running func() bool) Option {
	return func(s *Sink) { s.running = running }
}

// WithBufferDuration sets how much audio the ring holds at the effective rate.
func WithBufferDuration(d time.Duration) Option {
	return func(s *Sink) { s.bufferDuration = d }
}

// WithCapacity fixes the ring size in frames regardless of rate.
func WithCapacity(frames int) Option {
	return func(s *Sink) { s.capacity = frames }
}

// WithDeviceSamples sets the device buffer size in frames.
func WithDeviceSamples(frames int) Option {
	return func(s *Sink) { s.deviceSamples = frames }
}

// WithGrace sets how long Deinit waits for parked goroutines.
func WithGrace(d time.Duration) Option {
	return func(s *Sink) { s.grace = d }
}

// New creates an uninitialized sink playing through b.
func New(b backend.Backend, opts ...Option) *Sink {
	s := &Sink{
		backend:        b,
		running:        func() bool { return true },
		bufferDuration: throttle.BufferDuration,
		deviceSamples:  backend.DefaultSamples,
		grace:          DefaultGrace,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.throttle.Store(100)
	if s.settings != nil {
		s.throttle.Store(uint32(s.settings.Throttle()))
	}
	return s
}

// Init opens the host device at the effective rate for nativeRate and sizes
// the ring. An initialized sink is deinitialized first. On error the sink
// stays uninitialized and the caller can carry on without audio.
func (s *Sink) Init(nativeRate int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deinitLocked()

	if s.backend == nil {
		return ErrNoBackend
	}

	rate := throttle.EffectiveRate(nativeRate, s.Throttle())
	elements := s.capacity * throttle.Channels
	if s.capacity <= 0 {
		elements = throttle.BufferElements(rate, s.bufferDuration)
		// keep whole frames so a full ring has no unusable tail
		elements += elements % throttle.Channels
	}
	if elements < throttle.Channels {
		return fmt.Errorf("%w: %d elements at %d Hz", ring.ErrCapacity, elements, rate)
	}

	r, err := ring.New(elements)
	if err != nil {
		return err
	}

	st := &stream{
		ring: r,
		gate: gate.New(),
		rate: rate,
	}
	st.active.Store(true)

	spec := backend.Spec{
		SampleRate: rate,
		Channels:   throttle.Channels,
		Samples:    s.deviceSamples,
	}
	dev, err := s.backend.Open(spec, s.Read)
	if err != nil {
		return fmt.Errorf("%w (%s): %w", ErrDeviceOpen, s.backend.Name(), err)
	}
	st.device = dev

	s.nativeRate = nativeRate
	s.stream.Store(st)
	s.state.Store(int32(Initialized))

	slog.Info("Audio sink initialized",
		"backend", s.backend.Name(),
		"native_rate", nativeRate,
		"rate", rate,
		"throttle", s.Throttle(),
		"buffer_frames", elements/throttle.Channels)
	return nil
}

// Deinit releases any goroutine parked in Write or Read, then closes the
// device. It returns within the grace period even if a waiter is stuck.
func (s *Sink) Deinit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deinitLocked()
}

func (s *Sink) deinitLocked() {
	st := s.stream.Swap(nil)
	if st == nil {
		return
	}
	s.state.Store(int32(Uninitialized))

	// Clear the flag under the mutex so no new wait can start, then close the
	// gate to release both sides unconditionally before tearing down.
	st.gate.Locked(func() {
		st.active.Store(false)
	})
	st.gate.Close()

	if !st.gate.Drain(s.grace) {
		slog.Warn("Audio sink shutdown grace period expired", "parked", st.gate.Stats().Parked)
	}

	if err := st.device.Close(); err != nil {
		slog.Warn("Failed to close audio device", "backend", s.backend.Name(), "error", err)
	}

	slog.Debug("Audio sink deinitialized",
		"written_frames", s.written.Load(),
		"dropped_frames", s.dropped.Load(),
		"underruns", s.underrun.Load())
}

// Reset reinitializes the sink at the last native rate, picking up a new
// throttle. It does nothing on an uninitialized sink.
func (s *Sink) Reset() error {
	s.mu.Lock()
	initialized := s.stream.Load() != nil
	rate := s.nativeRate
	s.mu.Unlock()

	if !initialized {
		return nil
	}
	return s.Init(rate)
}

// Pause stops the device from pulling audio. It is a no-op when already paused.
func (s *Sink) Pause() error {
	return s.setPaused(true)
}

// Resume starts or restarts playback. It is a no-op when already running.
func (s *Sink) Resume() error {
	return s.setPaused(false)
}

func (s *Sink) setPaused(paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stream.Load()
	if st == nil {
		return nil
	}

	if paused {
		// A parked consumer must return before hosts that wait for the
		// callback can stop the device.
		st.gate.SignalAvailable()
	}

	if st.playing.Load() == !paused {
		if paused {
			s.state.Store(int32(Paused))
		}
		return nil
	}

	if err := st.device.SetPaused(paused); err != nil {
		return fmt.Errorf("failed to set device paused=%v: %w", paused, err)
	}
	st.playing.Store(!paused)

	if paused {
		s.state.Store(int32(Paused))
	} else {
		s.state.Store(int32(Running))
	}
	slog.Debug("Audio sink playback changed", "paused", paused)
	return nil
}

// SetThrottle records the throttle percentage. The wait policy uses it
// immediately, the device rate picks it up on the next Init or Reset.
func (s *Sink) SetThrottle(percent uint16) {
	s.throttle.Store(uint32(percent))
}

// Throttle returns the current throttle percentage.
func (s *Sink) Throttle() uint16 {
	return uint16(s.throttle.Load())
}

// State returns the lifecycle state.
func (s *Sink) State() State {
	return State(s.state.Load())
}

// Active reports whether the sink has an open device.
func (s *Sink) Active() bool {
	return s.stream.Load() != nil
}

// Rate returns the device sample rate, 0 when uninitialized.
func (s *Sink) Rate() int {
	if st := s.stream.Load(); st != nil {
		return st.rate
	}
	return 0
}

// Capacity returns the ring size in elements, 0 when uninitialized.
func (s *Sink) Capacity() int {
	st := s.stream.Load()
	if st == nil {
		return 0
	}
	var n int
	st.gate.Locked(func() { n = st.ring.Cap() })
	return n
}

// BufferSize returns the number of buffered elements not yet read.
func (s *Sink) BufferSize() int {
	st := s.stream.Load()
	if st == nil {
		return 0
	}
	var n int
	st.gate.Locked(func() { n = st.ring.Used() })
	return n
}

// Stats returns the sink counters.
func (s *Sink) Stats() Stats {
	stats := Stats{
		WrittenFrames: s.written.Load(),
		DroppedFrames: s.dropped.Load(),
		ReadFrames:    s.read.Load(),
		SilentFrames:  s.silent.Load(),
		Underruns:     s.underrun.Load(),
		Waits:         s.waits.Load(),
	}
	if st := s.stream.Load(); st != nil {
		stats.Gate = st.gate.Stats()
	}
	return stats
}

func (s *Sink) isRunning(st *stream) bool {
	return st.active.Load() && s.running()
}

func (s *Sink) shouldWait(st *stream) bool {
	in := throttle.Inputs{
		Running:  s.isRunning(st),
		Throttle: s.Throttle(),
	}
	if s.settings != nil {
		in.SpeedUp = s.settings.SpeedUp()
		in.LinkActive = s.settings.LinkActive()
	}
	return throttle.ShouldWait(in)
}

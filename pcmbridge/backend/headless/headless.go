package headless

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valerio/go-pcmbridge/pcmbridge/backend"
	"github.com/valerio/go-pcmbridge/pcmbridge/timing"
)

// pausePoll is how often a paused device checks for Close or Resume.
const pausePoll = 5 * time.Millisecond

// Backend implements backend.Backend without any host audio: a goroutine
// pulls one device buffer per period and hands it to an optional output.
// It is used for automated testing, batch rendering and machines without sound.
type Backend struct {
	output     func(buf []int16)
	newLimiter func(period time.Duration) timing.Limiter
}

// Option configures a headless Backend.
type Option func(*Backend)

// WithOutput receives every buffer pulled from the callback. The slice is
// reused after output returns.
func WithOutput(output func(buf []int16)) Option {
	return func(b *Backend) { b.output = output }
}

// WithLimiter replaces the real-time pacing of device pulls.
func WithLimiter(newLimiter func(period time.Duration) timing.Limiter) Option {
	return func(b *Backend) { b.newLimiter = newLimiter }
}

// Unpaced pulls buffers as fast as the callback returns them.
func Unpaced(time.Duration) timing.Limiter {
	return timing.NewNoOpLimiter()
}

func New(opts ...Option) *Backend {
	b := &Backend{
		newLimiter: func(period time.Duration) timing.Limiter {
			return timing.NewTickerLimiter(period)
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Name() string {
	return "headless"
}

func (b *Backend) Open(spec backend.Spec, cb backend.Callback) (backend.Device, error) {
	if spec.SampleRate <= 0 || spec.Channels <= 0 || spec.Samples <= 0 {
		return nil, fmt.Errorf("invalid device spec: %+v", spec)
	}
	if cb == nil {
		return nil, errors.New("nil audio callback")
	}

	period := timing.BufferPeriod(spec.Samples, spec.SampleRate)
	d := &Device{
		cb:      cb,
		output:  b.output,
		limiter: b.newLimiter(period),
		buf:     make([]int16, spec.BufferLen()),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	d.paused.Store(true)
	go d.loop()

	slog.Info("Headless audio device opened",
		"rate", spec.SampleRate,
		"channels", spec.Channels,
		"samples", spec.Samples,
		"period", period)
	return d, nil
}

// Device is an open headless device.
type Device struct {
	cb      backend.Callback
	output  func(buf []int16)
	limiter timing.Limiter
	buf     []int16

	paused atomic.Bool
	pulls  atomic.Uint64

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func (d *Device) loop() {
	defer close(d.done)
	defer d.limiter.Stop()

	for {
		if d.paused.Load() {
			select {
			case <-d.stop:
				return
			case <-time.After(pausePoll):
			}
			continue
		}

		select {
		case <-d.stop:
			return
		default:
		}

		d.limiter.WaitForNextFrame()
		d.cb(d.buf)
		d.pulls.Add(1)
		if d.output != nil {
			d.output(d.buf)
		}
	}
}

func (d *Device) SetPaused(paused bool) error {
	d.paused.Store(paused)
	return nil
}

// Pulls returns how many buffers the device has pulled.
func (d *Device) Pulls() uint64 {
	return d.pulls.Load()
}

// Close stops the pull loop and waits for an in-flight callback to return.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		close(d.stop)
	})
	<-d.done
	return nil
}

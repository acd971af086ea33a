//go:build portaudio

// Package portaudio plays the device stream through PortAudio's default
// output device.
package portaudio

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/valerio/go-pcmbridge/pcmbridge/backend"
)

var (
	initMu    sync.Mutex
	initCount int
)

// acquire initializes PortAudio on first use.
func acquire() error {
	initMu.Lock()
	defer initMu.Unlock()

	if initCount == 0 {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("portaudio initialization failed: %w", err)
		}
	}
	initCount++
	return nil
}

// release terminates PortAudio when the last device closes.
func release() {
	initMu.Lock()
	defer initMu.Unlock()

	initCount--
	if initCount <= 0 {
		if err := portaudio.Terminate(); err != nil {
			slog.Warn("Failed to terminate portaudio", "error", err)
		}
		initCount = 0
	}
}

type Backend struct{}

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Name() string {
	return "portaudio"
}

func (b *Backend) Open(spec backend.Spec, cb backend.Callback) (backend.Device, error) {
	if err := acquire(); err != nil {
		return nil, err
	}

	stream, err := portaudio.OpenDefaultStream(0, spec.Channels, float64(spec.SampleRate), spec.Samples, func(out []int16) {
		cb(out)
	})
	if err != nil {
		release()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}

	slog.Info("PortAudio stream opened", "rate", spec.SampleRate, "frames_per_buffer", spec.Samples)
	return &device{stream: stream}, nil
}

type device struct {
	mu      sync.Mutex
	stream  *portaudio.Stream
	started bool
	closed  bool
}

func (d *device) SetPaused(paused bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || d.started == !paused {
		return nil
	}
	if paused {
		if err := d.stream.Stop(); err != nil {
			return fmt.Errorf("failed to stop portaudio stream: %w", err)
		}
	} else {
		if err := d.stream.Start(); err != nil {
			return fmt.Errorf("failed to start portaudio stream: %w", err)
		}
	}
	d.started = !paused
	return nil
}

func (d *device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	defer release()

	if d.started {
		if err := d.stream.Stop(); err != nil {
			slog.Warn("Failed to stop portaudio stream", "error", err)
		}
	}
	if err := d.stream.Close(); err != nil {
		return fmt.Errorf("failed to close portaudio stream: %w", err)
	}
	return nil
}

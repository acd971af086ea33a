// Package wavfile records the device stream to 16-bit PCM WAV files instead
// of playing it. Pulls are paced like a real device, so the file holds
// exactly what a listener would have heard, underrun silence included.
package wavfile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/valerio/go-pcmbridge/pcmbridge/backend"
	"github.com/valerio/go-pcmbridge/pcmbridge/backend/headless"
	"github.com/valerio/go-pcmbridge/pcmbridge/timing"
)

// Backend writes every opened device to a WAV file. The first device uses
// path, later ones (after a sink reset changes the rate) get a numbered
// suffix so earlier segments are never truncated.
type Backend struct {
	path     string
	limiters []headless.Option

	mu       sync.Mutex
	segments []string
}

type Option func(*Backend)

// WithLimiter replaces real-time pacing, see headless.WithLimiter.
func WithLimiter(newLimiter func(period time.Duration) timing.Limiter) Option {
	return func(b *Backend) { b.limiters = append(b.limiters, headless.WithLimiter(newLimiter)) }
}

func New(path string, opts ...Option) *Backend {
	b := &Backend{path: path}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Name() string {
	return "wav"
}

// Segments returns the files written so far, in order.
func (b *Backend) Segments() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.segments...)
}

func (b *Backend) nextPath() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	path := b.path
	if n := len(b.segments); n > 0 {
		ext := filepath.Ext(b.path)
		path = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(b.path, ext), n, ext)
	}
	b.segments = append(b.segments, path)
	return path
}

func (b *Backend) Open(spec backend.Spec, cb backend.Callback) (backend.Device, error) {
	path := b.nextPath()
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create WAV file: %w", err)
	}

	rec := &recorder{
		path: path,
		file: f,
		enc:  wav.NewEncoder(f, spec.SampleRate, 16, spec.Channels, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{SampleRate: spec.SampleRate, NumChannels: spec.Channels},
			Data:           make([]int, 0, spec.BufferLen()),
			SourceBitDepth: 16,
		},
	}

	opts := append([]headless.Option{headless.WithOutput(rec.write)}, b.limiters...)
	dev, err := headless.New(opts...).Open(spec, cb)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}

	slog.Info("Recording audio", "file", path, "rate", spec.SampleRate)
	return &device{Device: dev, rec: rec}, nil
}

type recorder struct {
	path   string
	file   *os.File
	enc    *wav.Encoder
	buf    *audio.IntBuffer
	frames int
	err    error
}

// write runs on the pull goroutine only.
func (r *recorder) write(samples []int16) {
	if r.err != nil {
		return
	}
	r.buf.Data = r.buf.Data[:len(samples)]
	for i, s := range samples {
		r.buf.Data[i] = int(s)
	}
	if err := r.enc.Write(r.buf); err != nil {
		r.err = err
		slog.Error("Failed to write WAV data", "file", r.path, "error", err)
		return
	}
	r.frames += len(samples) / r.buf.Format.NumChannels
}

func (r *recorder) close() error {
	if err := r.enc.Close(); err != nil {
		r.file.Close()
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("failed to close WAV file: %w", err)
	}
	slog.Info("Recording finished", "file", r.path, "frames", r.frames)
	return r.err
}

type device struct {
	backend.Device
	rec       *recorder
	closeOnce sync.Once
	closeErr  error
}

// Close stops pulling, then finalizes the WAV header.
func (d *device) Close() error {
	d.closeOnce.Do(func() {
		if err := d.Device.Close(); err != nil {
			d.closeErr = err
			return
		}
		d.closeErr = d.rec.close()
	})
	return d.closeErr
}

// Package oto plays the device stream through ebitengine/oto.
package oto

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"

	"github.com/valerio/go-pcmbridge/pcmbridge/backend"
)

// oto allows a single context per process, so every Backend shares it.
var (
	ctxMu   sync.Mutex
	ctx     *oto.Context
	ctxRate int
)

func sharedContext(rate, channels int) (*oto.Context, error) {
	ctxMu.Lock()
	defer ctxMu.Unlock()

	if ctx != nil {
		if rate != ctxRate {
			return nil, fmt.Errorf("oto context already running at %d Hz, cannot switch to %d Hz", ctxRate, rate)
		}
		return ctx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}
	c, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	ctx, ctxRate = c, rate
	slog.Info("Oto context ready", "rate", rate, "channels", channels)
	return ctx, nil
}

type Backend struct{}

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Name() string {
	return "oto"
}

func (b *Backend) Open(spec backend.Spec, cb backend.Callback) (backend.Device, error) {
	c, err := sharedContext(spec.SampleRate, spec.Channels)
	if err != nil {
		return nil, err
	}

	d := &device{
		cb:      cb,
		scratch: make([]int16, spec.BufferLen()),
	}
	d.player = c.NewPlayer(d)
	d.player.SetBufferSize(spec.BufferLen() * 2)
	return d, nil
}

type device struct {
	cb      backend.Callback
	scratch []int16
	player  *oto.Player
	closed  atomic.Bool
}

// Read is called from oto's mixing goroutine.
func (d *device) Read(p []byte) (int, error) {
	if d.closed.Load() {
		clear(p)
		return len(p), nil
	}
	backend.FillBytes(p, d.scratch, d.cb)
	return len(p), nil
}

func (d *device) SetPaused(paused bool) error {
	if paused {
		d.player.Pause()
	} else {
		d.player.Play()
	}
	return nil
}

func (d *device) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	if err := d.player.Close(); err != nil {
		return fmt.Errorf("failed to close oto player: %w", err)
	}
	return nil
}

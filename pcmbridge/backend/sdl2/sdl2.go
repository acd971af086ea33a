//go:build sdl2

// Package sdl2 plays the device stream through an SDL2 audio device.
package sdl2

/*
typedef unsigned char Uint8;
void pcmbridgeAudioCallback(void *userdata, Uint8 *stream, int len);
*/
import "C"

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/valerio/go-pcmbridge/pcmbridge/backend"
)

// ErrBusy is returned when a device is already open. SDL calls back into C
// with no Go context, so only one device can be routed at a time.
var ErrBusy = errors.New("sdl2 audio device already open")

var active atomic.Pointer[device]

//export pcmbridgeAudioCallback
func pcmbridgeAudioCallback(userdata unsafe.Pointer, stream *C.Uint8, length C.int) {
	p := unsafe.Slice((*byte)(unsafe.Pointer(stream)), int(length))
	d := active.Load()
	if d == nil {
		clear(p)
		return
	}
	backend.FillBytes(p, d.scratch, d.cb)
}

type Backend struct {
	// Device is the output device name, empty for the system default.
	Device string
}

func New(device string) *Backend {
	return &Backend{Device: device}
}

func (b *Backend) Name() string {
	return "sdl2"
}

func (b *Backend) Open(spec backend.Spec, cb backend.Callback) (backend.Device, error) {
	d := &device{
		cb:      cb,
		scratch: make([]int16, spec.BufferLen()),
	}
	if !active.CompareAndSwap(nil, d) {
		return nil, ErrBusy
	}

	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		active.Store(nil)
		return nil, fmt.Errorf("failed to init SDL audio: %v", err)
	}

	want := &sdl.AudioSpec{
		Freq:     int32(spec.SampleRate),
		Format:   sdl.AUDIO_S16LSB,
		Channels: uint8(spec.Channels),
		Samples:  uint16(spec.Samples),
		Callback: sdl.AudioCallback(C.pcmbridgeAudioCallback),
	}
	var have sdl.AudioSpec
	id, err := sdl.OpenAudioDevice(b.Device, false, want, &have, 0)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
		active.Store(nil)
		return nil, fmt.Errorf("failed to open SDL audio device %q: %v", b.Device, err)
	}
	d.id = id

	slog.Info("SDL audio device opened",
		"device", b.Device,
		"rate", have.Freq,
		"channels", have.Channels,
		"samples", have.Samples)
	return d, nil
}

type device struct {
	id        sdl.AudioDeviceID
	cb        backend.Callback
	scratch   []int16
	closeOnce sync.Once
}

func (d *device) SetPaused(paused bool) error {
	sdl.PauseAudioDevice(d.id, paused)
	return nil
}

// Close blocks until a running callback returns, then frees the device.
func (d *device) Close() error {
	d.closeOnce.Do(func() {
		sdl.CloseAudioDevice(d.id)
		active.CompareAndSwap(d, nil)
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
	})
	return nil
}

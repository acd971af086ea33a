package backend

import (
	"encoding/binary"
	"errors"
)

// DefaultSamples is the device buffer size in frames requested from hosts.
const DefaultSamples = 2048

// ErrUnavailable is returned by backends that were not compiled in or whose
// host library is missing.
var ErrUnavailable = errors.New("audio backend not available")

// Spec describes the output format requested from a host device.
// Samples are always signed 16-bit, interleaved.
type Spec struct {
	SampleRate int
	Channels   int
	Samples    int // device buffer size in frames
}

// BufferLen returns the number of int16 elements in one device buffer.
func (s Spec) BufferLen() int {
	return s.Samples * s.Channels
}

// Callback fills buf with interleaved samples. Hosts invoke it from their
// own audio thread whenever they need more data.
type Callback func(buf []int16)

// Device is an open host output device.
// Devices are opened paused, audio is pulled only after SetPaused(false).
type Device interface {
	SetPaused(paused bool) error
	Close() error
}

// Backend represents a host audio subsystem.
// Backends are responsible for:
// - Opening an output device in the requested format
// - Invoking the callback on their own thread whenever audio is needed
// - Releasing host resources when the device is closed
type Backend interface {
	Name() string
	Open(spec Spec, cb Callback) (Device, error)
}

// FillBytes serves a byte-oriented pull of len(p) bytes through cb, in chunks
// of at most len(scratch) samples, encoding them as little-endian int16.
// A trailing odd byte is zeroed.
func FillBytes(p []byte, scratch []int16, cb Callback) {
	for len(p) >= 2 && len(scratch) > 0 {
		n := min(len(p)/2, len(scratch))
		chunk := scratch[:n]
		cb(chunk)
		for i, s := range chunk {
			binary.LittleEndian.PutUint16(p[i*2:], uint16(s))
		}
		p = p[n*2:]
	}
	clear(p)
}

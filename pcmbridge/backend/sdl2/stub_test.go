//go:build !sdl2

package sdl2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-pcmbridge/pcmbridge/backend"
)

func TestStubUnavailable(t *testing.T) {
	b := New("")
	_, err := b.Open(backend.Spec{SampleRate: 48000, Channels: 2, Samples: 2048}, func([]int16) {})
	assert.ErrorIs(t, err, backend.ErrUnavailable)
	assert.Equal(t, "sdl2", b.Name())
}

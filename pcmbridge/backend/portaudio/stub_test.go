//go:build !portaudio

package portaudio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-pcmbridge/pcmbridge/backend"
)

func TestStubUnavailable(t *testing.T) {
	_, err := New().Open(backend.Spec{SampleRate: 48000, Channels: 2, Samples: 2048}, func([]int16) {})
	assert.ErrorIs(t, err, backend.ErrUnavailable)
}

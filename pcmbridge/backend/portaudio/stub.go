//go:build !portaudio

package portaudio

import (
	"fmt"

	"github.com/valerio/go-pcmbridge/pcmbridge/backend"
)

// Backend stub for when PortAudio is not available
type Backend struct{}

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Name() string {
	return "portaudio"
}

func (b *Backend) Open(backend.Spec, backend.Callback) (backend.Device, error) {
	return nil, fmt.Errorf("%w: compile with -tags portaudio and install the PortAudio development libraries", backend.ErrUnavailable)
}

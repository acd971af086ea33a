//go:build !sdl2

package sdl2

import (
	"fmt"

	"github.com/valerio/go-pcmbridge/pcmbridge/backend"
)

// Backend stub for when SDL2 is not available
type Backend struct {
	Device string
}

func New(device string) *Backend {
	return &Backend{Device: device}
}

func (b *Backend) Name() string {
	return "sdl2"
}

func (b *Backend) Open(backend.Spec, backend.Callback) (backend.Device, error) {
	return nil, fmt.Errorf("%w: compile with -tags sdl2 and install SDL2 development libraries", backend.ErrUnavailable)
}

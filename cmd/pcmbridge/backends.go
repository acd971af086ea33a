package main

import (
	"fmt"
	"strings"

	"github.com/valerio/go-pcmbridge/pcmbridge/backend"
	"github.com/valerio/go-pcmbridge/pcmbridge/backend/headless"
	"github.com/valerio/go-pcmbridge/pcmbridge/backend/oto"
	"github.com/valerio/go-pcmbridge/pcmbridge/backend/portaudio"
	"github.com/valerio/go-pcmbridge/pcmbridge/backend/sdl2"
	"github.com/valerio/go-pcmbridge/pcmbridge/backend/wavfile"
)

var backendOrder = []string{"headless", "oto", "portaudio", "sdl2", "wav"}

func backendNames() string {
	return strings.Join(backendOrder, ", ")
}

// selectBackend maps a device option to a backend. "sdl2:<name>" picks a
// specific SDL output device.
func selectBackend(device, out string) (backend.Backend, error) {
	name, arg, _ := strings.Cut(device, ":")
	switch name {
	case "headless":
		return headless.New(), nil
	case "oto":
		return oto.New(), nil
	case "portaudio":
		return portaudio.New(), nil
	case "sdl2":
		return sdl2.New(arg), nil
	case "wav":
		if out == "" {
			out = arg
		}
		if out == "" {
			out = "pcmbridge.wav"
		}
		return wavfile.New(out), nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q (available: %s)", device, backendNames())
	}
}

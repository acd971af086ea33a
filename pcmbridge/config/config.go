// Package config holds the options the audio path reads: throttle, speed-up,
// link state, device and rate. Values are loaded from .env files and the
// environment, and live in a Store whose getters never block, since the sink
// reads them from the host audio thread.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables understood by Parse.
const (
	EnvThrottle = "PCMBRIDGE_THROTTLE"
	EnvSpeedUp  = "PCMBRIDGE_SPEEDUP"
	EnvLink     = "PCMBRIDGE_LINK"
	EnvDevice   = "PCMBRIDGE_DEVICE"
	EnvRate     = "PCMBRIDGE_RATE"
	EnvBufferMS = "PCMBRIDGE_BUFFER_MS"
)

const (
	// MaxThrottle is the highest accepted throttle percentage.
	MaxThrottle = 1000
	// MaxBuffer is the longest accepted ring duration.
	MaxBuffer = time.Second
)

// SampleRates are the supported native rates, highest first.
var SampleRates = []int{48000, 44100, 22050, 11025}

var ErrInvalid = errors.New("invalid option value")

// Values is a plain copy of every option.
type Values struct {
	Throttle   uint16
	SpeedUp    bool
	LinkActive bool
	Device     string
	SampleRate int
	Buffer     time.Duration
}

func Defaults() Values {
	return Values{
		Throttle:   100,
		Device:     "headless",
		SampleRate: 48000,
		Buffer:     100 * time.Millisecond,
	}
}

// Validate reports the first out-of-range field.
func (v Values) Validate() error {
	if v.Throttle > MaxThrottle {
		return fmt.Errorf("%w: throttle %d above %d", ErrInvalid, v.Throttle, MaxThrottle)
	}
	if !slices.Contains(SampleRates, v.SampleRate) {
		return fmt.Errorf("%w: sample rate %d not one of %v", ErrInvalid, v.SampleRate, SampleRates)
	}
	if v.Buffer <= 0 || v.Buffer > MaxBuffer {
		return fmt.Errorf("%w: buffer %v outside (0, %v]", ErrInvalid, v.Buffer, MaxBuffer)
	}
	if v.Device == "" {
		return fmt.Errorf("%w: empty device", ErrInvalid)
	}
	return nil
}

// Parse overlays env onto the defaults. Malformed values are errors,
// well-formed but out-of-range values are logged and the default kept.
func Parse(env map[string]string) (Values, error) {
	v := Defaults()
	var errs []error

	if s, ok := env[EnvThrottle]; ok {
		n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", EnvThrottle, err))
		case n > MaxThrottle:
			slog.Warn("Throttle out of range, using default", "value", n, "max", MaxThrottle, "default", v.Throttle)
		default:
			v.Throttle = uint16(n)
		}
	}

	if s, ok := env[EnvSpeedUp]; ok {
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvSpeedUp, err))
		} else {
			v.SpeedUp = b
		}
	}

	if s, ok := env[EnvLink]; ok {
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvLink, err))
		} else {
			v.LinkActive = b
		}
	}

	if s, ok := env[EnvDevice]; ok && strings.TrimSpace(s) != "" {
		v.Device = strings.TrimSpace(s)
	}

	if s, ok := env[EnvRate]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", EnvRate, err))
		case !slices.Contains(SampleRates, n):
			slog.Warn("Unsupported sample rate, using default", "value", n, "supported", SampleRates, "default", v.SampleRate)
		default:
			v.SampleRate = n
		}
	}

	if s, ok := env[EnvBufferMS]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		d := time.Duration(n) * time.Millisecond
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", EnvBufferMS, err))
		case d <= 0 || d > MaxBuffer:
			slog.Warn("Buffer duration out of range, using default", "value_ms", n, "default", v.Buffer)
		default:
			v.Buffer = d
		}
	}

	return v, errors.Join(errs...)
}

// Load reads the given .env files, or ./.env when none are given, and parses
// them with the process environment taking precedence. A missing default
// file is not an error.
func Load(paths ...string) (Values, error) {
	env := map[string]string{}

	if len(paths) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			paths = []string{".env"}
		}
	}
	if len(paths) > 0 {
		file, err := godotenv.Read(paths...)
		if err != nil {
			return Defaults(), fmt.Errorf("failed to read env files: %w", err)
		}
		env = file
	}

	for _, key := range []string{EnvThrottle, EnvSpeedUp, EnvLink, EnvDevice, EnvRate, EnvBufferMS} {
		if s, ok := os.LookupEnv(key); ok {
			env[key] = s
		}
	}
	return Parse(env)
}

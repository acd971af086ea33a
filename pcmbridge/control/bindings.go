package control

import (
	"log/slog"

	"github.com/valerio/go-pcmbridge/pcmbridge/control/action"
	"github.com/valerio/go-pcmbridge/pcmbridge/control/event"
)

const (
	// ThrottleStep is how much one ThrottleUp/ThrottleDown changes the throttle.
	ThrottleStep = 10
	// MinThrottle keeps ThrottleDown from reaching 0, which means unthrottled.
	MinThrottle = ThrottleStep
)

// Emulation is the part of the machine the controls drive.
type Emulation interface {
	TogglePause() bool
}

// Options is the part of the option store the controls change.
type Options interface {
	Throttle() uint16
	SetThrottle(percent uint16) error
	SpeedUp() bool
	SetSpeedUp(on bool)
	LinkActive() bool
	SetLinkActive(on bool)
}

// Mixer mutes individual generator voices.
type Mixer interface {
	ToggleVoice(i int)
}

// Targets are what the default bindings act on. Nil fields leave their
// actions unbound.
type Targets struct {
	Emulation   Emulation
	Options     Options
	Mixer       Mixer
	LogLevel    *slog.LevelVar
	MaxThrottle uint16
	Quit        func()
}

// BindDefaults registers Press handlers for every action.
func BindDefaults(m *Manager, t Targets) {
	if t.Emulation != nil {
		m.On(action.PauseToggle, event.Press, func() {
			slog.Info("Pause toggled", "paused", t.Emulation.TogglePause())
		})
	}

	if t.Options != nil {
		opts := t.Options
		m.On(action.SpeedUpToggle, event.Press, func() {
			opts.SetSpeedUp(!opts.SpeedUp())
			slog.Info("Speed-up toggled", "speedup", opts.SpeedUp())
		})
		m.On(action.LinkToggle, event.Press, func() {
			opts.SetLinkActive(!opts.LinkActive())
			slog.Info("Link toggled", "link", opts.LinkActive())
		})
		m.On(action.ThrottleUp, event.Press, func() {
			setThrottle(opts, int(opts.Throttle())+ThrottleStep, t.MaxThrottle)
		})
		m.On(action.ThrottleDown, event.Press, func() {
			setThrottle(opts, int(opts.Throttle())-ThrottleStep, t.MaxThrottle)
		})
		m.On(action.ThrottleReset, event.Press, func() {
			setThrottle(opts, 100, t.MaxThrottle)
		})
	}

	if t.Mixer != nil {
		voices := []action.Action{action.ToggleVoice1, action.ToggleVoice2, action.ToggleVoice3, action.ToggleVoice4}
		for i, act := range voices {
			m.On(act, event.Press, func() {
				t.Mixer.ToggleVoice(i)
				slog.Info("Voice toggled", "voice", i+1)
			})
		}
	}

	if t.LogLevel != nil {
		// slog levels are 4 apart
		m.On(action.LogLevelIncrease, event.Press, func() {
			t.LogLevel.Set(max(t.LogLevel.Level()-4, slog.LevelDebug))
		})
		m.On(action.LogLevelDecrease, event.Press, func() {
			t.LogLevel.Set(min(t.LogLevel.Level()+4, slog.LevelError))
		})
	}

	if t.Quit != nil {
		m.On(action.Quit, event.Press, t.Quit)
	}
}

func setThrottle(opts Options, percent int, maxThrottle uint16) {
	if maxThrottle == 0 {
		maxThrottle = 1000
	}
	percent = max(MinThrottle, min(percent, int(maxThrottle)))
	if err := opts.SetThrottle(uint16(percent)); err != nil {
		slog.Warn("Failed to set throttle", "percent", percent, "error", err)
		return
	}
	slog.Info("Throttle changed", "percent", percent)
}

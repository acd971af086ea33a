package action

import "fmt"

// Action represents input actions that can be performed while playing
type Action int

const (
	// Emulation
	PauseToggle Action = iota
	SpeedUpToggle
	LinkToggle
	Quit

	// Throttle
	ThrottleUp
	ThrottleDown
	ThrottleReset

	// Audio debug controls
	ToggleVoice1
	ToggleVoice2
	ToggleVoice3
	ToggleVoice4

	// Debug controls
	LogLevelIncrease
	LogLevelDecrease
)

var names = [...]string{
	PauseToggle:      "pause-toggle",
	SpeedUpToggle:    "speedup-toggle",
	LinkToggle:       "link-toggle",
	Quit:             "quit",
	ThrottleUp:       "throttle-up",
	ThrottleDown:     "throttle-down",
	ThrottleReset:    "throttle-reset",
	ToggleVoice1:     "toggle-voice-1",
	ToggleVoice2:     "toggle-voice-2",
	ToggleVoice3:     "toggle-voice-3",
	ToggleVoice4:     "toggle-voice-4",
	LogLevelIncrease: "log-level-increase",
	LogLevelDecrease: "log-level-decrease",
}

func (a Action) String() string {
	if a >= 0 && int(a) < len(names) {
		return names[a]
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

package control

import "github.com/valerio/go-pcmbridge/pcmbridge/control/action"

// DefaultKeyMap provides default key mappings for terminal frontends.
var DefaultKeyMap = map[string]action.Action{
	"Space":  action.PauseToggle,
	"p":      action.PauseToggle, // Alternative key
	"Tab":    action.SpeedUpToggle,
	"s":      action.SpeedUpToggle, // Alternative key
	"l":      action.LinkToggle,
	"Escape": action.Quit,
	"q":      action.Quit,

	"Up":   action.ThrottleUp,
	"]":    action.ThrottleUp,
	"Down": action.ThrottleDown,
	"[":    action.ThrottleDown,
	"0":    action.ThrottleReset,

	"1": action.ToggleVoice1,
	"2": action.ToggleVoice2,
	"3": action.ToggleVoice3,
	"4": action.ToggleVoice4,

	"+": action.LogLevelIncrease,
	"=": action.LogLevelIncrease, // Alternative without shift
	"-": action.LogLevelDecrease,
	"_": action.LogLevelDecrease, // Alternative with shift
}

// GetDefaultMapping returns the default action for a key, if one exists
func GetDefaultMapping(key string) (action.Action, bool) {
	act, ok := DefaultKeyMap[key]
	return act, ok
}

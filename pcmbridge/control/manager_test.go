package control

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-pcmbridge/pcmbridge/config"
	"github.com/valerio/go-pcmbridge/pcmbridge/control/action"
	"github.com/valerio/go-pcmbridge/pcmbridge/control/event"
)

func TestManager_Debouncing(t *testing.T) {
	tests := []struct {
		name        string
		eventType   event.Type
		timeBetween time.Duration
		wantSecond  bool
	}{
		{name: "rapid press is debounced", eventType: event.Press, timeBetween: 100 * time.Millisecond, wantSecond: false},
		{name: "slow press is not debounced", eventType: event.Press, timeBetween: 400 * time.Millisecond, wantSecond: true},
		{name: "rapid release is debounced", eventType: event.Release, timeBetween: 10 * time.Millisecond, wantSecond: false},
		{name: "hold is never debounced", eventType: event.Hold, timeBetween: 0, wantSecond: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			clock := time.Unix(1000, 0)
			m.now = func() time.Time { return clock }

			calls := 0
			m.On(action.PauseToggle, tt.eventType, func() { calls++ })

			assert.True(t, m.Trigger(action.PauseToggle, tt.eventType))
			clock = clock.Add(tt.timeBetween)
			assert.Equal(t, tt.wantSecond, m.Trigger(action.PauseToggle, tt.eventType))

			want := 1
			if tt.wantSecond {
				want = 2
			}
			assert.Equal(t, want, calls)
		})
	}
}

func TestManager_DebounceIsPerAction(t *testing.T) {
	m := NewManager()
	var pauses, quits int
	m.On(action.PauseToggle, event.Press, func() { pauses++ })
	m.On(action.Quit, event.Press, func() { quits++ })

	m.Trigger(action.PauseToggle, event.Press)
	m.Trigger(action.Quit, event.Press)
	assert.Equal(t, 1, pauses)
	assert.Equal(t, 1, quits)
}

func TestManager_UnboundAction(t *testing.T) {
	m := NewManager(WithDebounce(0))
	assert.False(t, m.Trigger(action.LinkToggle, event.Press))
}

func TestDefaultKeyMap(t *testing.T) {
	act, ok := GetDefaultMapping("Space")
	require.True(t, ok)
	assert.Equal(t, action.PauseToggle, act)

	_, ok = GetDefaultMapping("F13")
	assert.False(t, ok)

	assert.Equal(t, "throttle-up", action.ThrottleUp.String())
	assert.Equal(t, "Action(99)", action.Action(99).String())
}

type fakeEmulation struct{ paused bool }

func (f *fakeEmulation) TogglePause() bool {
	f.paused = !f.paused
	return f.paused
}

type fakeMixer struct{ toggled []int }

func (f *fakeMixer) ToggleVoice(i int) { f.toggled = append(f.toggled, i) }

func TestBindDefaults(t *testing.T) {
	m := NewManager(WithDebounce(0))
	emu := &fakeEmulation{}
	store := config.NewStore(config.Defaults())
	mixer := &fakeMixer{}
	level := &slog.LevelVar{}
	quit := false

	BindDefaults(m, Targets{
		Emulation:   emu,
		Options:     store,
		Mixer:       mixer,
		LogLevel:    level,
		MaxThrottle: 120,
		Quit:        func() { quit = true },
	})

	m.Trigger(action.PauseToggle, event.Press)
	assert.True(t, emu.paused)

	m.Trigger(action.SpeedUpToggle, event.Press)
	assert.True(t, store.SpeedUp())
	m.Trigger(action.LinkToggle, event.Press)
	assert.True(t, store.LinkActive())

	m.Trigger(action.ThrottleUp, event.Press)
	assert.Equal(t, uint16(110), store.Throttle())
	m.Trigger(action.ThrottleUp, event.Press)
	m.Trigger(action.ThrottleUp, event.Press)
	assert.Equal(t, uint16(120), store.Throttle(), "clamped to max")

	require.NoError(t, store.SetThrottle(15))
	m.Trigger(action.ThrottleDown, event.Press)
	assert.Equal(t, uint16(MinThrottle), store.Throttle(), "never reaches unthrottled")
	m.Trigger(action.ThrottleReset, event.Press)
	assert.Equal(t, uint16(100), store.Throttle())

	m.Trigger(action.ToggleVoice3, event.Press)
	m.Trigger(action.ToggleVoice1, event.Press)
	assert.Equal(t, []int{2, 0}, mixer.toggled)

	m.Trigger(action.LogLevelIncrease, event.Press)
	assert.Equal(t, slog.LevelDebug, level.Level())
	m.Trigger(action.LogLevelIncrease, event.Press)
	assert.Equal(t, slog.LevelDebug, level.Level())
	m.Trigger(action.LogLevelDecrease, event.Press)
	m.Trigger(action.LogLevelDecrease, event.Press)
	m.Trigger(action.LogLevelDecrease, event.Press)
	assert.Equal(t, slog.LevelError, level.Level())

	m.Trigger(action.Quit, event.Press)
	assert.True(t, quit)
}

// Package monitor draws a live terminal view of the audio path: ring fill,
// drop and underrun counters, current options and recent log lines. Keys
// are translated to control actions.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-pcmbridge/pcmbridge/control"
	"github.com/valerio/go-pcmbridge/pcmbridge/control/action"
	"github.com/valerio/go-pcmbridge/pcmbridge/control/event"
	"github.com/valerio/go-pcmbridge/pcmbridge/sink"
)

const (
	refreshInterval = time.Second / 30
	barWidth        = 40
	headerHeight    = 7
)

// AudioView is the read-only side of the sink.
type AudioView interface {
	State() sink.State
	Rate() int
	Capacity() int
	BufferSize() int
	Stats() sink.Stats
}

// OptionsView is the read-only side of the option store.
type OptionsView interface {
	Throttle() uint16
	SpeedUp() bool
	LinkActive() bool
	Device() string
}

// EmulationView is the read-only side of the machine.
type EmulationView interface {
	Frames() uint64
	Paused() bool
}

type Sources struct {
	Audio     AudioView
	Options   OptionsView
	Emulation EmulationView
}

type Monitor struct {
	screen  tcell.Screen
	src     Sources
	input   *control.Manager
	logs    *LogBuffer
	refresh time.Duration
}

func New(screen tcell.Screen, src Sources, input *control.Manager, logs *LogBuffer) *Monitor {
	return &Monitor{
		screen:  screen,
		src:     src,
		input:   input,
		logs:    logs,
		refresh: refreshInterval,
	}
}

// Run owns the screen until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %v", err)
	}
	defer m.screen.Fini()

	m.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	m.screen.Clear()
	slog.Debug("Monitor started")

	ticker := time.NewTicker(m.refresh)
	defer ticker.Stop()

	for {
		m.handleEvents()
		m.Draw()
		m.screen.Show()

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (m *Monitor) handleEvents() {
	for m.screen.HasPendingEvent() {
		switch ev := m.screen.PollEvent().(type) {
		case *tcell.EventKey:
			if act, ok := lookupKey(ev); ok && m.input != nil {
				m.input.Trigger(act, event.Press)
			}
		case *tcell.EventResize:
			m.screen.Sync()
		}
	}
}

// Draw renders the current state into the screen buffer.
func (m *Monitor) Draw() {
	m.screen.Clear()
	width, height := m.screen.Size()

	bold := tcell.StyleDefault.Bold(true)
	plain := tcell.StyleDefault
	warn := tcell.StyleDefault.Foreground(tcell.ColorYellow)

	row := 0
	line := func(style tcell.Style, format string, args ...any) {
		if row < height {
			drawText(m.screen, 0, row, width, style, fmt.Sprintf(format, args...))
		}
		row++
	}

	if a := m.src.Audio; a != nil {
		stats := a.Stats()
		line(bold, "pcmbridge  state=%s  rate=%d Hz", a.State(), a.Rate())
		line(plain, "buffer %s %d/%d", fillBar(a.BufferSize(), a.Capacity(), barWidth), a.BufferSize(), a.Capacity())

		style := plain
		if stats.DroppedFrames > 0 || stats.Underruns > 0 {
			style = warn
		}
		line(style, "written=%d  read=%d  dropped=%d  silent=%d  underruns=%d  waits=%d",
			stats.WrittenFrames, stats.ReadFrames, stats.DroppedFrames, stats.SilentFrames, stats.Underruns, stats.Waits)
		g := stats.Gate
		line(plain, "gate available=%d/%d/%d  read=%d/%d/%d  parked=%d",
			g.Available.Deposited, g.Available.Coalesced, g.Available.Released,
			g.Read.Deposited, g.Read.Coalesced, g.Read.Released, g.Parked)
	}

	if o := m.src.Options; o != nil {
		line(plain, "device=%s  throttle=%d%%  speedup=%s  link=%s",
			o.Device(), o.Throttle(), onOff(o.SpeedUp()), onOff(o.LinkActive()))
	}
	if e := m.src.Emulation; e != nil {
		line(plain, "frames=%d  paused=%s", e.Frames(), onOff(e.Paused()))
	}
	line(plain, "%s", strings.Repeat("─", width))

	footer := height - 1
	if m.logs != nil {
		for _, entry := range m.logs.Recent(footer - row) {
			line(logStyle(entry.Level), "%s", FormatLogEntry(entry))
		}
	}

	drawText(m.screen, 0, footer, width, tcell.StyleDefault.Reverse(true),
		"space pause  tab speed-up  l link  [ ] throttle  0 reset  1-4 voices  +/- log level  q quit")
}

func drawText(s tcell.Screen, x, y, maxWidth int, style tcell.Style, text string) {
	for _, r := range text {
		if x >= maxWidth {
			return
		}
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

func fillBar(used, capacity, width int) string {
	filled := 0
	if capacity > 0 {
		filled = min(width, used*width/capacity)
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func logStyle(level slog.Level) tcell.Style {
	switch {
	case level >= slog.LevelError:
		return tcell.StyleDefault.Foreground(tcell.ColorRed)
	case level >= slog.LevelWarn:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow)
	case level < slog.LevelInfo:
		return tcell.StyleDefault.Foreground(tcell.ColorGray)
	default:
		return tcell.StyleDefault
	}
}

// tcellKeyNameMap converts tcell keys to key names used in default mappings
var tcellKeyNameMap = map[tcell.Key]string{
	tcell.KeyUp:     "Up",
	tcell.KeyDown:   "Down",
	tcell.KeyTab:    "Tab",
	tcell.KeyEscape: "Escape",
}

func lookupKey(ev *tcell.EventKey) (action.Action, bool) {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return action.Quit, true
	case tcell.KeyRune:
		name := string(ev.Rune())
		if ev.Rune() == ' ' {
			name = "Space"
		}
		return control.GetDefaultMapping(name)
	}
	if name, ok := tcellKeyNameMap[ev.Key()]; ok {
		return control.GetDefaultMapping(name)
	}
	return 0, false
}

package control

import (
	"sync"
	"time"

	"github.com/valerio/go-pcmbridge/pcmbridge/control/action"
	"github.com/valerio/go-pcmbridge/pcmbridge/control/event"
)

const (
	// DefaultDebounce is the minimum time between debounced events
	DefaultDebounce = 300 * time.Millisecond
)

type key struct {
	act action.Action
	evt event.Type
}

// Manager handles input actions and their associated callbacks.
// It is safe to trigger from any goroutine.
type Manager struct {
	mu            sync.Mutex
	debounce      time.Duration
	handlers      map[key][]func()
	lastTriggered map[key]time.Time
	now           func() time.Time
}

type Option func(*Manager)

func WithDebounce(d time.Duration) Option {
	return func(m *Manager) { m.debounce = d }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		debounce:      DefaultDebounce,
		handlers:      make(map[key][]func()),
		lastTriggered: make(map[key]time.Time),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// On registers a callback for a specific action and event type
func (m *Manager) On(act action.Action, evt event.Type, callback func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{act, evt}
	m.handlers[k] = append(m.handlers[k], callback)
}

// Trigger runs the callbacks registered for act and evt. Press and Release
// events arriving within the debounce window of the previous one are
// ignored. It reports whether callbacks ran.
func (m *Manager) Trigger(act action.Action, evt event.Type) bool {
	k := key{act, evt}

	m.mu.Lock()
	if evt == event.Press || evt == event.Release {
		now := m.now()
		if last, ok := m.lastTriggered[k]; ok && now.Sub(last) < m.debounce {
			m.mu.Unlock()
			return false
		}
		m.lastTriggered[k] = now
	}
	callbacks := append([]func(){}, m.handlers[k]...)
	m.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
	return len(callbacks) > 0
}

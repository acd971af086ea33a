package config

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Option identifies a field of the Store in change notifications.
type Option int

const (
	OptThrottle Option = iota
	OptSpeedUp
	OptLinkActive
	OptDevice
)

var optionNames = map[Option]string{
	OptThrottle:   "throttle",
	OptSpeedUp:    "speedup",
	OptLinkActive: "link",
	OptDevice:     "device",
}

func (o Option) String() string {
	if name, ok := optionNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Option(%d)", int(o))
}

// Store is the live option set. Getters are single atomic loads, setters
// notify observers synchronously after the value changed.
type Store struct {
	throttle atomic.Uint32
	speedUp  atomic.Bool
	link     atomic.Bool
	device   atomic.Pointer[string]
	rate     atomic.Int64
	buffer   atomic.Int64

	mu        sync.Mutex
	observers []func(Option)
}

func NewStore(v Values) *Store {
	s := &Store{}
	s.throttle.Store(uint32(v.Throttle))
	s.speedUp.Store(v.SpeedUp)
	s.link.Store(v.LinkActive)
	s.device.Store(&v.Device)
	s.rate.Store(int64(v.SampleRate))
	s.buffer.Store(int64(v.Buffer))
	return s
}

// OnChange registers fn to run after any option changes value.
func (s *Store) OnChange(fn func(Option)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Store) notify(o Option) {
	s.mu.Lock()
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(o)
	}
}

func (s *Store) Throttle() uint16      { return uint16(s.throttle.Load()) }
func (s *Store) SpeedUp() bool         { return s.speedUp.Load() }
func (s *Store) LinkActive() bool      { return s.link.Load() }
func (s *Store) Device() string        { return *s.device.Load() }
func (s *Store) SampleRate() int       { return int(s.rate.Load()) }
func (s *Store) Buffer() time.Duration { return time.Duration(s.buffer.Load()) }

func (s *Store) SetThrottle(percent uint16) error {
	if percent > MaxThrottle {
		return fmt.Errorf("%w: throttle %d above %d", ErrInvalid, percent, MaxThrottle)
	}
	if s.throttle.Swap(uint32(percent)) != uint32(percent) {
		s.notify(OptThrottle)
	}
	return nil
}

func (s *Store) SetSpeedUp(on bool) {
	if s.speedUp.Swap(on) != on {
		s.notify(OptSpeedUp)
	}
}

func (s *Store) SetLinkActive(on bool) {
	if s.link.Swap(on) != on {
		s.notify(OptLinkActive)
	}
}

func (s *Store) SetDevice(name string) {
	if *s.device.Swap(&name) != name {
		s.notify(OptDevice)
	}
}

func (s *Store) Snapshot() Values {
	return Values{
		Throttle:   s.Throttle(),
		SpeedUp:    s.SpeedUp(),
		LinkActive: s.LinkActive(),
		Device:     s.Device(),
		SampleRate: s.SampleRate(),
		Buffer:     s.Buffer(),
	}
}

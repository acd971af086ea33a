// Package gate implements the producer/consumer handshake that guards a
// sample ring: one mutex and two single-credit channels.
//
// dataAvailable carries "the producer added data the consumer has not been
// told about", dataRead carries "the consumer freed space the producer has not
// been told about". Each channel holds at most one credit, so signals coalesce
// and the handshake gates whole Write/Read calls rather than single samples.
package gate

import (
	"sync"
	"sync/atomic"
	"time"
)

// drainPoll is how often Drain checks for parked goroutines.
const drainPoll = time.Millisecond

type credit struct {
	ch        chan struct{}
	deposited atomic.Uint64
	coalesced atomic.Uint64
	released  atomic.Uint64
}

func (c *credit) signal() {
	select {
	case c.ch <- struct{}{}:
		c.deposited.Add(1)
	default:
		c.coalesced.Add(1)
	}
}

func (c *credit) stats() ChannelStats {
	return ChannelStats{
		Deposited: c.deposited.Load(),
		Coalesced: c.coalesced.Load(),
		Released:  c.released.Load(),
		Pending:   len(c.ch),
	}
}

// ChannelStats counts the traffic on one credit channel.
// Deposited always equals Released plus Pending.
type ChannelStats struct {
	Deposited uint64 // credits placed in the channel, including the initial one
	Coalesced uint64 // signals dropped because a credit was already pending
	Released  uint64 // waits satisfied by a credit
	Pending   int    // credits not yet taken (0 or 1)
}

// Stats is a point-in-time view of a Gate.
type Stats struct {
	Available ChannelStats
	Read      ChannelStats
	Parked    int
	Closed    bool
}

// Gate pairs a mutex with the two handshake channels.
type Gate struct {
	mu sync.Mutex

	available credit
	read      credit

	done      chan struct{}
	closeOnce sync.Once
	parked    atomic.Int32
}

// New creates a gate whose dataRead channel starts with one credit, so the
// producer's first wait never blocks.
func New() *Gate {
	g := &Gate{
		available: credit{ch: make(chan struct{}, 1)},
		read:      credit{ch: make(chan struct{}, 1)},
		done:      make(chan struct{}),
	}
	g.read.signal()
	return g
}

// Locked runs fn with the mutex held. The mutex is released on every exit
// path, including a panic inside fn.
func (g *Gate) Locked(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn()
}

// SignalAvailable tells the consumer that data was added.
func (g *Gate) SignalAvailable() {
	g.available.signal()
}

// SignalRead tells the producer that space was freed.
func (g *Gate) SignalRead() {
	g.read.signal()
}

// WaitAvailable blocks until the producer signals or the gate is closed.
// It reports false when released by Close.
func (g *Gate) WaitAvailable() bool {
	return g.wait(&g.available)
}

// WaitRead blocks until the consumer signals or the gate is closed.
// It reports false when released by Close.
func (g *Gate) WaitRead() bool {
	return g.wait(&g.read)
}

func (g *Gate) wait(c *credit) bool {
	select {
	case <-g.done:
		return false
	default:
	}

	g.parked.Add(1)
	defer g.parked.Add(-1)

	select {
	case <-c.ch:
		c.released.Add(1)
		return true
	case <-g.done:
		return false
	}
}

// Close releases every goroutine parked in a wait, now and in the future.
// It is safe to call more than once.
func (g *Gate) Close() {
	g.closeOnce.Do(func() {
		close(g.done)
	})
}

// Closed reports whether Close has been called.
func (g *Gate) Closed() bool {
	select {
	case <-g.done:
		return true
	default:
		return false
	}
}

// Drain waits until no goroutine is parked in the gate or grace elapses.
// It reports whether all waiters left in time.
func (g *Gate) Drain(grace time.Duration) bool {
	deadline := time.Now().Add(grace)
	for g.parked.Load() > 0 {
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(drainPoll)
	}
	return true
}

// Stats returns the current credit counters.
func (g *Gate) Stats() Stats {
	return Stats{
		Available: g.available.stats(),
		Read:      g.read.stats(),
		Parked:    int(g.parked.Load()),
		Closed:    g.Closed(),
	}
}

// Package connectivity tracks whether the ChartHub service is currently reachable.
//
// The Monitor is owned by the application container; the ChartHub client
// writes to it based on request outcomes, and metadata sources read it to
// gate online lookups.
package connectivity

import (
	"sync"
	"sync/atomic"
)

// State describes the current session with the online service.
type State int32

const (
	// Offline means the last request failed at the transport level.
	Offline State = iota
	// Connecting is the initial state before any request has completed.
	Connecting
	// Online means the service responded to the most recent request.
	Online
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case Offline:
		return "offline"
	case Connecting:
		return "connecting"
	case Online:
		return "online"
	default:
		return "unknown"
	}
}

// Monitor is a concurrency-safe holder for the connectivity state.
type Monitor struct {
	state atomic.Int32

	mu   sync.Mutex
	subs []func(State)
}

// NewMonitor creates a monitor in the Connecting state.
func NewMonitor() *Monitor {
	m := &Monitor{}
	m.state.Store(int32(Connecting))
	return m
}

// State returns the current state. Always a live read, never cached.
func (m *Monitor) State() State {
	return State(m.state.Load())
}

// SetState updates the state and notifies subscribers when it changed.
// Subscribers are invoked synchronously and must not block.
func (m *Monitor) SetState(s State) {
	prev := State(m.state.Swap(int32(s)))
	if prev == s {
		return
	}

	m.mu.Lock()
	subs := make([]func(State), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}

// Subscribe registers a callback for state transitions.
func (m *Monitor) Subscribe(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

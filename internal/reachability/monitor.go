// Package reachability reports whether the device currently has network
// connectivity and notifies subscribers on transitions. Connectivity is an
// external capability; Manual lets host platforms push transitions while
// Probe derives them from a periodic health check.
package reachability

import "sync"

// Monitor reports connectivity and transition events.
type Monitor interface {
	// Online reports the last known connectivity state.
	Online() bool
	// Subscribe registers fn to run on every state transition. The returned
	// cancel func removes the subscription. fn is invoked synchronously from
	// the goroutine that observed the transition.
	Subscribe(fn func(online bool)) (cancel func())
	// Close releases any background resources.
	Close() error
}

// Manual is a Monitor whose state is set by the caller. Host platforms wire
// their native connectivity events into SetOnline; tests drive it directly.
type Manual struct {
	mu     sync.Mutex
	online bool
	nextID int
	subs   map[int]func(bool)
}

// NewManual constructs a Manual monitor with the given initial state.
func NewManual(online bool) *Manual {
	return &Manual{online: online, subs: make(map[int]func(bool))}
}

func (m *Manual) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline updates the state and notifies subscribers when it changed.
func (m *Manual) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	fns := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(online)
	}
}

func (m *Manual) Subscribe(fn func(bool)) (cancel func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manual) Close() error { return nil }

package auth

import (
	"sync"
	"time"
)

// Store holds the last known session for one principal and fans out state
// transitions to subscribers. It is the explicit context handed to the
// ledger controller at construction: no hidden global, so tests can
// substitute their own.
type Store struct {
	mu      sync.Mutex
	current *Session
	subs    map[int]func(Event)
	nextID  int
}

// NewStore creates a store seeded with an initial session, which may be nil
// when no one is signed in yet.
func NewStore(initial *Session) *Store {
	return &Store{
		current: initial,
		subs:    make(map[int]func(Event)),
	}
}

// Current returns the last known session state, or nil when signed out.
// The read is synchronous and never touches the provider.
func (s *Store) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe registers a listener invoked once per state transition with the
// new session (nil on sign-out). The returned function unregisters it;
// cancellation on teardown prevents callbacks into dead components.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Apply records a transition and notifies subscribers. A sign-out that is
// already signed out is a no-op, keeping delivery at most once per
// transition. Notification happens synchronously so that dependents have
// dropped cached data by the time Apply returns.
func (s *Store) Apply(ev Event) {
	s.mu.Lock()
	if ev.Type == EventSignedOut && s.current == nil {
		s.mu.Unlock()
		return
	}
	switch ev.Type {
	case EventSignedOut:
		s.current = nil
		ev.Session = nil
	case EventSignedIn, EventTokenRefreshed:
		s.current = ev.Session
	}
	listeners := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

// Expired reports whether the held session exists but is no longer valid.
// Callers use it to distinguish "needs refresh" from "signed out".
func (s *Store) Expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && !s.current.Valid(now)
}

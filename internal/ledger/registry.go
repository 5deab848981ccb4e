package ledger

import (
	"sync"
	"time"

	"trackify/internal/auth"
	applog "trackify/internal/log"
)

// Registry owns one controller per signed-in user, so all ledger work for a
// user funnels through a single actor no matter how many requests arrive.
type Registry struct {
	repo   Repository
	events Publisher
	logger *applog.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	store *auth.Store
	ctrl  *Controller
}

func NewRegistry(repo Repository, events Publisher, logger *applog.Logger) *Registry {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Registry{
		repo:    repo,
		events:  events,
		logger:  logger.WithComponent("ledger"),
		entries: make(map[string]*entry),
	}
}

// For returns the controller for the session's user, creating it on first
// use. A fresher expiry on an existing entry is applied as a token refresh
// so the controller keeps working without a refetch.
func (r *Registry) For(sess *auth.Session) *Controller {
	r.mu.Lock()
	e, ok := r.entries[sess.UserID]
	if !ok {
		store := auth.NewStore(sess)
		e = &entry{
			store: store,
			ctrl: NewController(Config{
				Sessions: store,
				Repo:     r.repo,
				Events:   r.events,
				Logger:   r.logger.With("user_id", sess.UserID),
			}),
		}
		r.entries[sess.UserID] = e
		r.mu.Unlock()
		return e.ctrl
	}
	r.mu.Unlock()

	if cur := e.store.Current(); cur == nil || sess.ExpiresAt.After(cur.ExpiresAt) {
		e.store.Apply(auth.Event{Type: auth.EventTokenRefreshed, Session: sess})
	}
	return e.ctrl
}

// SignOut drops the user's controller after notifying it, so any in-flight
// cycle discards its result and cached projections are gone when this
// returns.
func (r *Registry) SignOut(userID string) {
	r.mu.Lock()
	e, ok := r.entries[userID]
	delete(r.entries, userID)
	r.mu.Unlock()
	if !ok {
		return
	}
	e.store.Apply(auth.Event{Type: auth.EventSignedOut})
	e.ctrl.Close()
}

// Sweep closes controllers whose sessions have expired. Called
// periodically; the equivalent of expiry detected out-of-band.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	var expired []string
	for userID, e := range r.entries {
		if e.store.Expired(now) {
			expired = append(expired, userID)
		}
	}
	r.mu.Unlock()

	for _, userID := range expired {
		r.logger.Info("Session expired, signing out", "user_id", userID)
		r.SignOut(userID)
	}
	return len(expired)
}

// Close shuts down every controller.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.entries = make(map[string]*entry)
	r.mu.Unlock()
	for _, e := range entries {
		e.ctrl.Close()
	}
}

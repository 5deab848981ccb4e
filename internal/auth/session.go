// Package auth tracks the authenticated session and its lifecycle. The
// identity provider itself is external; this package consumes its tokens
// and republishes state transitions to interested parties.
package auth

import "time"

// Event types pushed by the identity provider.
const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

type (
	EventType string

	// Event is a single auth state transition. Session is nil on sign-out.
	Event struct {
		Type    EventType
		Session *Session
	}

	// Session is the authenticated identity and its validity window.
	Session struct {
		UserID    string
		Email     string
		ExpiresAt time.Time
	}
)

// Valid reports whether the session authorizes calls at the given instant.
// An expired session must never reach the transaction store.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.UserID == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

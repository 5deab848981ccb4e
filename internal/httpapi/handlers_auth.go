package httpapi

import (
	"encoding/json"
	"net/http"

	"trackify/internal/auth"
	"trackify/internal/core"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	ExpiresAt string `json:"expires_at"`
}

func sessionJSON(sess *auth.Session, token string) sessionResponse {
	return sessionResponse{
		Token:     token,
		UserID:    sess.UserID,
		Email:     sess.Email,
		ExpiresAt: sess.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func decodeCredentials(r *http.Request) (credentialsRequest, error) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, core.NewError(core.KindValidation, "request body must be JSON with email and password")
	}
	return req, nil
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, token, err := s.provider.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("User signed up", "user_id", sess.UserID)
	writeJSON(w, http.StatusCreated, sessionJSON(sess, token))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, token, err := s.provider.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("User signed in", "user_id", sess.UserID)
	writeJSON(w, http.StatusOK, sessionJSON(sess, token))
}

// handleLogout revokes the token and tears down the user's ledger
// controller. Both are idempotent, so a replayed logout is harmless.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := s.provider.SignOut(r.Context(), tokenFrom(r)); err != nil {
		writeError(w, err)
		return
	}
	s.registry.SignOut(sess.UserID)
	s.logger.Info("User signed out", "user_id", sess.UserID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	sess, token, err := s.provider.Refresh(r.Context(), tokenFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	// Propagate the fresher expiry to the user's controller.
	s.registry.For(sess)
	writeJSON(w, http.StatusOK, sessionJSON(sess, token))
}

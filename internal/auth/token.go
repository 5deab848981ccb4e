package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"trackify/internal/core"
)

// UserDirectory is the slice of the persistence layer the provider needs:
// credential checks and registration. Implemented by storage.
type UserDirectory interface {
	Authenticate(ctx context.Context, email, password string) (userID string, err error)
	Register(ctx context.Context, email, password string) (userID string, err error)
}

// Claims is the JWT payload.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenProvider is the identity provider: it issues signed session tokens
// on sign-in, restores sessions from presented tokens, and revokes them on
// sign-out. Tokens are stateless HS256 JWTs; revocation is an in-memory
// denylist of token ids held until their natural expiry.
type TokenProvider struct {
	secret []byte
	ttl    time.Duration
	users  UserDirectory

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> expiry
}

// NewTokenProvider returns a provider signing with secret and issuing
// sessions valid for ttl.
func NewTokenProvider(secret string, ttl time.Duration, users UserDirectory) *TokenProvider {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenProvider{
		secret:  []byte(secret),
		ttl:     ttl,
		users:   users,
		revoked: make(map[string]time.Time),
	}
}

// SignUp registers a new user and signs them in.
func (p *TokenProvider) SignUp(ctx context.Context, email, password string) (*Session, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", core.NewError(core.KindValidation, "a valid email is required")
	}
	if len(password) < 8 {
		return nil, "", core.NewError(core.KindValidation, "password must be at least 8 characters")
	}
	userID, err := p.users.Register(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	return p.issue(userID, email)
}

// SignIn checks credentials and issues a fresh session token.
func (p *TokenProvider) SignIn(ctx context.Context, email, password string) (*Session, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	userID, err := p.users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	return p.issue(userID, email)
}

// GetSession restores the session a token represents. Expired, malformed or
// revoked tokens yield an unauthenticated error; the caller redirects to
// sign-in rather than showing an error banner.
func (p *TokenProvider) GetSession(_ context.Context, token string) (*Session, error) {
	claims, err := p.parse(token)
	if err != nil {
		return nil, err
	}
	return sessionFromClaims(claims), nil
}

// Refresh exchanges a still-valid token for a new one with a fresh expiry,
// revoking the old token. Consumers observe this as a TOKEN_REFRESHED
// transition, not a sign-out/sign-in pair.
func (p *TokenProvider) Refresh(_ context.Context, token string) (*Session, string, error) {
	claims, err := p.parse(token)
	if err != nil {
		return nil, "", err
	}
	p.revoke(claims)
	return p.issue(claims.Subject, claims.Email)
}

// SignOut revokes the token. Subsequent GetSession calls with it fail.
func (p *TokenProvider) SignOut(_ context.Context, token string) error {
	claims, err := p.parse(token)
	if err != nil {
		// Signing out an already-dead token is not an error worth surfacing.
		if core.KindOf(err) == core.KindUnauthenticated {
			return nil
		}
		return err
	}
	p.revoke(claims)
	return nil
}

func (p *TokenProvider) issue(userID, email string) (*Session, string, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(p.ttl)
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        newTokenID(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, "", core.WrapError(core.KindUnknown, "sign token", err)
	}
	return sessionFromClaims(&claims), token, nil
}

func (p *TokenProvider) parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, core.WrapError(core.KindUnauthenticated, "invalid session token", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, core.NewError(core.KindUnauthenticated, "invalid session token")
	}
	if p.isRevoked(claims.ID) {
		return nil, core.NewError(core.KindUnauthenticated, "session has been signed out")
	}
	return claims, nil
}

func (p *TokenProvider) revoke(claims *Claims) {
	if claims.ID == "" {
		return
	}
	expiry := time.Now().UTC().Add(p.ttl)
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	p.mu.Lock()
	p.revoked[claims.ID] = expiry
	p.pruneLocked(time.Now().UTC())
	p.mu.Unlock()
}

func (p *TokenProvider) isRevoked(jti string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.revoked[jti]
	return ok
}

// pruneLocked drops denylist entries for tokens past their own expiry;
// an expired token fails parsing anyway.
func (p *TokenProvider) pruneLocked(now time.Time) {
	for jti, exp := range p.revoked {
		if now.After(exp) {
			delete(p.revoked, jti)
		}
	}
}

func sessionFromClaims(claims *Claims) *Session {
	s := &Session{
		UserID: claims.Subject,
		Email:  claims.Email,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s
}

func newTokenID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "jti_" + hex.EncodeToString([]byte(time.Now().UTC().Format(time.RFC3339Nano)))
	}
	return hex.EncodeToString(b)
}

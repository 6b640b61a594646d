package auth

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/steemit/feedsync/internal/cache"
	"github.com/steemit/feedsync/internal/feed"
)

// TokenSession holds the client's bearer token and exposes it as the feed
// session. The client cannot check the signature; it reads the subject and
// expiry and leaves verification to the record store.
type TokenSession struct {
	mu     sync.RWMutex
	token  string
	claims *Claims
	now    func() time.Time
}

// NewTokenSession creates a session from a token. An empty or unreadable token means signed out.
func NewTokenSession(token string) *TokenSession {
	s := &TokenSession{now: time.Now}
	s.SetToken(token)
	return s
}

// SetToken signs in with a new token
func (s *TokenSession) SetToken(token string) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil || claims.Subject == "" {
		claims = nil
	}

	s.mu.Lock()
	s.token = token
	s.claims = claims
	s.mu.Unlock()
}

// SignOut drops the token
func (s *TokenSession) SignOut() {
	s.SetToken("")
}

// Token returns the bearer token to send, or "" when signed out
func (s *TokenSession) Token() string {
	if _, ok := s.CurrentSession(context.Background()); !ok {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// CurrentSession implements feed.SessionSource. Expired tokens count as signed out.
func (s *TokenSession) CurrentSession(context.Context) (feed.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil {
		return feed.Session{}, false
	}
	if exp := s.claims.ExpiresAt; exp != nil && !s.now().Before(exp.Time) {
		return feed.Session{}, false
	}
	id := s.claims.ID
	if id == "" {
		id = cache.HashKey(s.token)
	}
	return feed.Session{ID: id, UserID: s.claims.Subject}, true
}

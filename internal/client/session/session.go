// Package session owns the client's authenticated state: the opaque token
// issued on login, the profile that came with it, and their persistence.
//
// A Session is created once at startup, loaded from its Store and then handed
// to every component that needs to know who is signed in. Nothing else reads
// the persisted token directly.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the informational fields read from a JWT session token.
// The signature is not verified; the token stays opaque to authorization.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token carried an expiry that lies before now.
func (c *Claims) Expired(now time.Time) bool {
	return c != nil && !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Session is the signed-in state shared by the flow and the views.
type Session struct {
	mu     sync.RWMutex
	store  Store
	log    logging.Logger
	now    func() time.Time
	token  string
	user   *Profile
	claims *Claims
}

// New creates a signed-out Session persisted through store. Call Load to
// restore a saved one.
func New(store Store, log logging.Logger) *Session {
	if log == nil {
		log = logging.Discard()
	}
	return &Session{store: store, log: log, now: time.Now}
}

// Load initialises the session from the store. A missing record leaves the
// session signed out; a stored token that has already expired is removed.
func (s *Session) Load(ctx context.Context) error {
	rec, err := s.store.Load(ctx)
	if errors.Is(err, ErrNoSession) {
		s.reset()
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	claims := parseClaims(rec.Token)
	if claims.Expired(s.now()) {
		s.log.Info(ctx, "stored session expired", "subject", claims.Subject, "expired_at", claims.ExpiresAt)
		return s.Clear(ctx)
	}

	s.mu.Lock()
	s.token, s.user, s.claims = rec.Token, rec.User, claims
	s.mu.Unlock()

	s.log.Debug(ctx, "session restored", "saved_at", rec.SavedAt)
	return nil
}

// Set persists token (and the optional profile), replacing any previous
// session.
func (s *Session) Set(ctx context.Context, token string, user *Profile) error {
	if token == "" {
		return errors.New("empty session token")
	}
	if err := s.store.Save(ctx, Record{Token: token, User: user, SavedAt: s.now()}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	s.mu.Lock()
	s.token, s.user, s.claims = token, user, parseClaims(token)
	s.mu.Unlock()
	return nil
}

// Clear removes the persisted token and signs the session out. The in-memory
// state is dropped even when the store fails.
func (s *Session) Clear(ctx context.Context) error {
	s.reset()
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Session) reset() {
	s.mu.Lock()
	s.token, s.user, s.claims = "", nil, nil
	s.mu.Unlock()
}

// Token returns the session token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is held.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// User returns the profile saved with the token, if any.
func (s *Session) User() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Claims returns the decoded token claims, or nil when signed out or when the
// token is not a JWT.
func (s *Session) Claims() *Claims {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims
}

// DisplayName is the best human label for the signed-in account.
func (s *Session) DisplayName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.user != nil && s.user.Username != "":
		return s.user.Username
	case s.user != nil && s.user.Email != "":
		return s.user.Email
	case s.claims != nil && s.claims.Subject != "":
		return s.claims.Subject
	case s.token != "":
		return "signed in"
	default:
		return ""
	}
}

func parseClaims(token string) *Claims {
	var rc jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &rc); err != nil {
		return nil
	}
	c := &Claims{Subject: rc.Subject}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c
}

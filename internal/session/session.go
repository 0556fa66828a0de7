// Package session is the single source of truth for who is logged in, with
// what token and roles, including fail-closed expiry enforcement and
// restore from persisted credentials.
package session

import (
	"sync"
	"time"

	"github.com/larkin/bankview-go/internal/domain"

	"go.uber.org/zap"
)

// CredentialStore persists the single "current login" record across process
// restarts. Implemented by the encrypted file store; the interface exists so
// tests can substitute an in-memory one.
type CredentialStore interface {
	Get() (*domain.Credentials, error)
	Set(creds *domain.Credentials) error
	Remove() error
}

// AuthSession holds the current identity. States move
// anonymous -> logged in -> (expired | logged out) -> anonymous; both exits
// converge on the same cleared state, and roles are never populated while
// loggedIn is false.
type AuthSession struct {
	mu        sync.RWMutex
	loggedIn  bool
	username  string
	roles     []string
	token     string
	loginTime time.Time

	creds  CredentialStore
	now    func() time.Time
	logger *zap.Logger
}

// New creates an anonymous session backed by the given credential store.
func New(creds CredentialStore, logger *zap.Logger) *AuthSession {
	return &AuthSession{
		creds:  creds,
		now:    time.Now,
		logger: logger,
	}
}

// Login overwrites any prior session state unconditionally: last login wins.
func (s *AuthSession) Login(creds domain.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loggedIn = true
	s.username = creds.Username
	s.roles = append([]string(nil), creds.Roles...)
	s.token = creds.Token
	s.loginTime = s.now()
}

// Logout clears all fields. Idempotent: a second call lands on the same
// terminal state. Also removes the persisted copy.
func (s *AuthSession) Logout() {
	s.mu.Lock()
	s.loggedIn = false
	s.username = ""
	s.roles = nil
	s.token = ""
	s.loginTime = time.Time{}
	s.mu.Unlock()

	if s.creds != nil {
		if err := s.creds.Remove(); err != nil {
			s.logger.Warn("failed to remove persisted login", zap.Error(err))
		}
	}
}

// Restore attempts to resume a persisted session. A missing record returns
// false without mutating state. An expired or unparseable token clears the
// persisted copy and returns false. Otherwise the session logs in with the
// persisted credentials.
func (s *AuthSession) Restore() bool {
	if s.creds == nil {
		return false
	}

	persisted, err := s.creds.Get()
	if err != nil {
		s.logger.Warn("failed to read persisted login", zap.Error(err))
		return false
	}
	if persisted == nil {
		return false
	}

	expiresAt, err := tokenExpiry(persisted.Token)
	if err != nil || !expiresAt.After(s.now()) {
		s.logger.Info("persisted token expired or unparseable, clearing",
			zap.String("username", persisted.Username),
		)
		if rmErr := s.creds.Remove(); rmErr != nil {
			s.logger.Warn("failed to clear persisted login", zap.Error(rmErr))
		}
		return false
	}

	s.logger.Info("reusing persisted token",
		zap.String("username", persisted.Username),
		zap.Time("expires_at", expiresAt),
	)
	s.Login(*persisted)
	return true
}

// IsExpired reports whether the token's expiry claim has passed. Any decode
// or parse failure counts as expired: an unparseable token must never be
// treated as valid.
func (s *AuthSession) IsExpired(token string) bool {
	expiresAt, err := tokenExpiry(token)
	if err != nil {
		return true
	}
	return !expiresAt.After(s.now())
}

// HasRole reports whether the session carries the given role.
func (s *AuthSession) HasRole(role string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.roles {
		if r == role {
			return true
		}
	}
	return false
}

// LoggedIn reports whether a live session exists, enforcing expiry: a
// session whose token has lapsed since login reads as logged out and is
// cleared on observation.
func (s *AuthSession) LoggedIn() bool {
	s.mu.RLock()
	loggedIn, token := s.loggedIn, s.token
	s.mu.RUnlock()

	if !loggedIn {
		return false
	}
	if s.IsExpired(token) {
		s.logger.Info("session token expired")
		s.Logout()
		return false
	}
	return true
}

// Token returns the current bearer token, empty when anonymous.
func (s *AuthSession) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Snapshot returns a read-only view for the view layer and route guard.
// Expiry is enforced on the way out, so a snapshot never reports a session
// whose token has already lapsed.
func (s *AuthSession) Snapshot() domain.SessionSnapshot {
	s.LoggedIn()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.SessionSnapshot{
		LoggedIn:  s.loggedIn,
		Username:  s.username,
		Roles:     append([]string(nil), s.roles...),
		Token:     s.token,
		LoginTime: s.loginTime,
	}
}

package service

import (
	"context"
	"fmt"

	"github.com/larkin/bankview-go/internal/domain"
	"github.com/larkin/bankview-go/internal/infra/observability"
	"github.com/larkin/bankview-go/internal/port"
	"github.com/larkin/bankview-go/internal/session"
	"github.com/larkin/bankview-go/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var authTracer = otel.Tracer("service/auth")

// cacheFlusher is what AuthService needs from the bank directory cache:
// drop everything when the session ends.
type cacheFlusher interface {
	Flush()
}

// AuthService drives the session lifecycle: login against the gateway,
// restore from persistence at startup, and logout with a full local reset.
type AuthService struct {
	session  *session.AuthSession
	accounts *store.AccountStore
	gateway  port.AuthGateway
	creds    session.CredentialStore
	cache    cacheFlusher
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewAuthService creates an auth service.
func NewAuthService(sess *session.AuthSession, accounts *store.AccountStore, gw port.AuthGateway, creds session.CredentialStore, cache cacheFlusher, metrics *observability.Metrics, logger *zap.Logger) *AuthService {
	return &AuthService{
		session:  sess,
		accounts: accounts,
		gateway:  gw,
		creds:    creds,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
	}
}

// Login exchanges credentials with the gateway and installs the session.
// Last login wins: any prior session state and account data is discarded,
// which also drops fetch results still in flight for the old session.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.SessionSnapshot, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()
	span.SetAttributes(attribute.String("username", username))

	creds, err := s.gateway.Login(ctx, username, password)
	if err != nil {
		s.metrics.IncrGatewayError("login")
		return domain.SessionSnapshot{}, fmt.Errorf("login: %w", err)
	}

	s.accounts.Reset()
	s.session.Login(*creds)

	if err := s.creds.Set(creds); err != nil {
		// A session that cannot be persisted still works; it just won't
		// survive a restart.
		s.logger.Warn("failed to persist login", zap.Error(err))
	}

	s.logger.Info("logged in", zap.String("username", creds.Username))
	return s.session.Snapshot(), nil
}

// Logout clears the session, the persisted copy, the account store, and
// the bank directory cache. Idempotent.
func (s *AuthService) Logout() {
	username := s.session.Snapshot().Username

	s.session.Logout()
	s.accounts.Reset()
	if s.cache != nil {
		s.cache.Flush()
	}

	if username != "" {
		s.logger.Info("logged out", zap.String("username", username))
	}
}

// RestoreOnStart attempts to resume a persisted session at process start.
func (s *AuthService) RestoreOnStart() bool {
	restored := s.session.Restore()
	if restored {
		s.metrics.RecordSessionRestore("restored")
	} else {
		s.metrics.RecordSessionRestore("none")
	}
	return restored
}

// Snapshot exposes the current session to the view layer.
func (s *AuthService) Snapshot() domain.SessionSnapshot {
	return s.session.Snapshot()
}

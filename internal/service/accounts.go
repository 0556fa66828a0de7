// Package service provides the orchestration layer between the HTTP
// surface, the session-scoped state, and the backend gateway.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/larkin/bankview-go/internal/domain"
	"github.com/larkin/bankview-go/internal/infra/observability"
	"github.com/larkin/bankview-go/internal/port"
	"github.com/larkin/bankview-go/internal/session"
	"github.com/larkin/bankview-go/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var accountsTracer = otel.Tracer("service/accounts")

// AccountsService keeps the session's AccountStore synchronized with the
// gateway: one guarded initial fetch per session, merge of created
// accounts, and forced refetch for compensation.
type AccountsService struct {
	store   *store.AccountStore
	session *session.AuthSession
	gateway port.AccountGateway
	single  singleflight.Group
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewAccountsService creates an accounts service over the given store.
func NewAccountsService(accounts *store.AccountStore, sess *session.AuthSession, gw port.AccountGateway, metrics *observability.Metrics, logger *zap.Logger) *AccountsService {
	return &AccountsService{
		store:   accounts,
		session: sess,
		gateway: gw,
		metrics: metrics,
		logger:  logger,
	}
}

// EnsureLoaded issues the initial account fetch exactly once per session.
// Overlapping callers race on the store's single-shot flag: one wins and
// fetches, the rest observe the flag already set and return immediately.
func (s *AccountsService) EnsureLoaded(ctx context.Context) error {
	gen, first := s.store.TryBeginLoad()
	if !first {
		return nil
	}
	return s.fetch(ctx, gen)
}

// Refresh forces a full authoritative refetch, superseding any local
// optimistic deltas. Concurrent refreshes collapse into one gateway call.
func (s *AccountsService) Refresh(ctx context.Context) error {
	s.store.MarkLoadAttempted()
	return s.fetch(ctx, s.store.Generation())
}

// fetch retrieves the account list and installs it, unless the session was
// reset while the request was in flight — then the result is discarded.
func (s *AccountsService) fetch(ctx context.Context, gen uint64) error {
	ctx, span := accountsTracer.Start(ctx, "AccountsService.fetch")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("accounts_fetch", time.Since(start)) }()

	v, err, shared := s.single.Do("myaccounts", func() (any, error) {
		return s.gateway.MyAccounts(ctx, s.session.Token())
	})
	if err != nil {
		s.metrics.IncrGatewayError("myaccounts")
		return fmt.Errorf("fetch accounts: %w", err)
	}
	span.SetAttributes(attribute.Bool("shared", shared))

	accounts := v.([]domain.Account)
	if !s.store.ReplaceAllIfCurrent(gen, accounts) {
		s.logger.Info("discarding account fetch for reset session")
		return &domain.ErrStaleSession{}
	}

	s.logger.Info("account list loaded", zap.Int("count", len(accounts)))
	return nil
}

// Accounts returns the current read-only snapshot, loading it first if
// this session has not yet attempted the initial fetch.
func (s *AccountsService) Accounts(ctx context.Context) ([]domain.Account, error) {
	if err := s.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.store.Snapshot(), nil
}

// CreateAccount opens an account on the gateway and merges the result into
// the store. A session reset during the call discards the merge — the
// account exists server-side and will arrive with the next session's fetch.
func (s *AccountsService) CreateAccount(ctx context.Context, req *domain.NewAccountRequest) (*domain.Account, error) {
	ctx, span := accountsTracer.Start(ctx, "AccountsService.CreateAccount")
	defer span.End()

	if req.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "account name is required"}
	}
	if req.InitialBalance < 0 {
		return nil, &domain.ErrValidation{Field: "initialBalance", Message: "initial balance cannot be negative"}
	}
	if req.InitialBalance > 0 && req.SourceFundsAccountID == 0 {
		return nil, &domain.ErrValidation{Field: "sourceFundsAccountId", Message: "funding account required for an initial balance"}
	}

	gen := s.store.Generation()
	account, err := s.gateway.CreateAccount(ctx, s.session.Token(), req)
	if err != nil {
		s.metrics.IncrGatewayError("new_account")
		return nil, fmt.Errorf("create account: %w", err)
	}

	if !s.store.MergeIfCurrent(gen, []domain.Account{*account}) {
		s.logger.Info("discarding created account for reset session",
			zap.Int32("account_id", account.AccountID),
		)
		return account, nil
	}

	// Funding an initial balance debits the source account; refetch so the
	// local copy reflects it rather than guessing the gateway's fee logic.
	if req.SourceFundsAccountID != 0 && req.InitialBalance > 0 {
		if err := s.Refresh(ctx); err != nil {
			s.logger.Warn("post-create refetch failed", zap.Error(err))
		}
	}

	s.logger.Info("account created",
		zap.Int32("account_id", account.AccountID),
		zap.String("name", account.Name),
	)
	return account, nil
}

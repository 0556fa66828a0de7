package service

import (
	"context"
	"fmt"

	"github.com/larkin/bankview-go/internal/domain"
	"github.com/larkin/bankview-go/internal/infra/observability"
	"github.com/larkin/bankview-go/internal/port"
	"github.com/larkin/bankview-go/internal/session"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var banksTracer = otel.Tracer("service/banks")

const banksCacheKey = "banks"

// BanksService serves the bank directory. The directory changes rarely, so
// it sits behind a TTL cache instead of the per-session triedLoad guard the
// account list uses.
type BanksService struct {
	session *session.AuthSession
	gateway port.AccountGateway
	cache   port.Cache[[]domain.Bank]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewBanksService creates a banks service.
func NewBanksService(sess *session.AuthSession, gw port.AccountGateway, cache port.Cache[[]domain.Bank], metrics *observability.Metrics, logger *zap.Logger) *BanksService {
	return &BanksService{
		session: sess,
		gateway: gw,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// Banks returns the bank directory, from cache when fresh.
func (s *BanksService) Banks(ctx context.Context) ([]domain.Bank, error) {
	ctx, span := banksTracer.Start(ctx, "BanksService.Banks")
	defer span.End()

	if banks, ok := s.cache.Get(banksCacheKey); ok {
		s.metrics.IncrCacheHit("banks")
		return banks, nil
	}
	s.metrics.IncrCacheMiss("banks")

	banks, err := s.gateway.Banks(ctx, s.session.Token())
	if err != nil {
		s.metrics.IncrGatewayError("banks")
		return nil, fmt.Errorf("fetch banks: %w", err)
	}

	s.cache.Set(banksCacheKey, banks)
	s.logger.Info("bank directory loaded", zap.Int("count", len(banks)))
	return banks, nil
}

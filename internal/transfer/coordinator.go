// Package transfer validates transfer requests and reflects accepted
// transfers in the local account state before the next full refetch.
package transfer

import (
	"context"
	"fmt"
	"strconv"

	"github.com/larkin/bankview-go/internal/domain"
	"github.com/larkin/bankview-go/internal/infra/observability"
	"github.com/larkin/bankview-go/internal/port"
	"github.com/larkin/bankview-go/internal/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("transfer")

// Coordinator turns a user-entered amount and a pair of account selections
// into a validated transfer, submits it, and applies the optimistic balance
// adjustment once the gateway has accepted it. A rejected submission never
// perturbs local state.
type Coordinator struct {
	accounts  *store.AccountStore
	payments  port.PaymentGateway
	refresher port.AccountRefresher
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewCoordinator creates a transfer coordinator over the given store and
// payment gateway. refresher is the compensation fallback.
func NewCoordinator(accounts *store.AccountStore, payments port.PaymentGateway, refresher port.AccountRefresher, metrics *observability.Metrics, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		accounts:  accounts,
		payments:  payments,
		refresher: refresher,
		metrics:   metrics,
		logger:    logger,
	}
}

// BuildIntent validates the account pair and amount and mints a fresh
// idempotency key, so a retried submission is not double-applied
// server-side. Both ids must resolve to known accounts.
func (c *Coordinator) BuildIntent(sourceID, targetID int32, amountMinor int64) (*domain.TransferIntent, error) {
	if sourceID == targetID {
		return nil, &domain.ErrValidation{Field: "targetAccountId", Message: "source and target must differ"}
	}
	if amountMinor <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}
	if _, ok := c.accounts.Get(sourceID); !ok {
		return nil, &domain.ErrNotFound{Resource: "account", ID: strconv.Itoa(int(sourceID))}
	}
	if _, ok := c.accounts.Get(targetID); !ok {
		return nil, &domain.ErrNotFound{Resource: "account", ID: strconv.Itoa(int(targetID))}
	}

	return &domain.TransferIntent{
		SourceAccountID:  sourceID,
		TargetAccountID:  targetID,
		AmountMinorUnits: amountMinor,
		IdempotencyKey:   uuid.NewString(),
	}, nil
}

// ApplyOptimistic adjusts both balances locally. Call only after the
// gateway accepted the transfer. A missing account is logged and skipped,
// never raised past the initiating caller: the next authoritative refetch
// corrects whatever the delta could not reach.
func (c *Coordinator) ApplyOptimistic(intent *domain.TransferIntent) {
	if err := c.accounts.ApplyDelta(intent.SourceAccountID, -intent.AmountMinorUnits); err != nil {
		c.logger.Warn("optimistic debit skipped", zap.Error(err))
	}
	if err := c.accounts.ApplyDelta(intent.TargetAccountID, intent.AmountMinorUnits); err != nil {
		c.logger.Warn("optimistic credit skipped", zap.Error(err))
	}
	c.metrics.RecordOptimisticApply()
}

// Compensate reverses a previously applied optimistic adjustment after the
// gateway reported an asynchronous failure. If either reverse delta cannot
// be applied, the whole collection is refetched instead — local state must
// never silently diverge from the authoritative balances.
func (c *Coordinator) Compensate(ctx context.Context, intent *domain.TransferIntent) {
	errSrc := c.accounts.ApplyDelta(intent.SourceAccountID, intent.AmountMinorUnits)
	errDst := c.accounts.ApplyDelta(intent.TargetAccountID, -intent.AmountMinorUnits)
	c.metrics.RecordCompensation()

	if errSrc != nil || errDst != nil {
		c.logger.Warn("compensating delta incomplete, forcing refetch",
			zap.String("idempotency_key", intent.IdempotencyKey),
		)
		if err := c.refresher.Refresh(ctx); err != nil {
			c.logger.Error("compensation refetch failed", zap.Error(err))
		}
	}
}

// Transfer is the full flow: parse the amount, validate the pair, submit
// to the gateway, and on acceptance apply the optimistic deltas. Invalid
// input is reported synchronously with no state mutation; a gateway
// rejection surfaces to the caller and leaves local state untouched.
func (c *Coordinator) Transfer(ctx context.Context, token string, sourceID, targetID int32, amount string) (*domain.TransferIntent, error) {
	ctx, span := tracer.Start(ctx, "Coordinator.Transfer")
	defer span.End()

	amountMinor, err := ParseAmount(amount)
	if err != nil {
		return nil, err
	}

	intent, err := c.BuildIntent(sourceID, targetID, amountMinor)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("source_account_id", int(intent.SourceAccountID)),
		attribute.Int("target_account_id", int(intent.TargetAccountID)),
		attribute.Int64("amount_minor", intent.AmountMinorUnits),
	)

	req := &domain.TransferRequest{
		SourceAccountID: intent.SourceAccountID,
		TargetAccountID: intent.TargetAccountID,
		AppID:           intent.IdempotencyKey,
		Amount:          intent.AmountMinorUnits,
	}
	if err := c.payments.Transfer(ctx, token, req); err != nil {
		c.metrics.RecordTransfer("rejected")
		return nil, fmt.Errorf("submit transfer: %w", err)
	}

	c.ApplyOptimistic(intent)
	c.metrics.RecordTransfer("accepted")

	c.logger.Info("transfer accepted",
		zap.Int32("source_account_id", intent.SourceAccountID),
		zap.Int32("target_account_id", intent.TargetAccountID),
		zap.Int64("amount_minor", intent.AmountMinorUnits),
		zap.String("idempotency_key", intent.IdempotencyKey),
	)
	return intent, nil
}

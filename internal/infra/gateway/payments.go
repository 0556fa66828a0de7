package gateway

import (
	"context"
	"net/http"

	"github.com/larkin/bankview-go/internal/domain"
	"github.com/larkin/bankview-go/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Transfer submits a transfer via POST /payment/transfer. Any 2xx means
// accepted. Transient failures are retried — the request carries the
// intent's idempotency key as appId, so the gateway deduplicates. A
// definitive rejection (4xx) comes back as ErrGatewayRejected and is not
// retried.
func (c *Client) Transfer(ctx context.Context, token string, reqBody *domain.TransferRequest) error {
	ctx, span := tracer.Start(ctx, "Client.Transfer")
	defer span.End()
	span.SetAttributes(
		attribute.Int("source_account_id", int(reqBody.SourceAccountID)),
		attribute.Int("target_account_id", int(reqBody.TargetAccountID)),
		attribute.Int64("amount_minor", reqBody.Amount),
		attribute.String("app_id", reqBody.AppID),
	)

	err := c.do(ctx, func() error {
		req, err := c.newJSONRequest(ctx, http.MethodPost, "/payment/transfer", token, reqBody)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return nil
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return resilience.Permanent(&domain.ErrUnauthorized{})
		}

		rejection := &domain.ErrGatewayRejected{Operation: "transfer", Status: resp.StatusCode}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return resilience.Permanent(rejection)
		}
		return rejection
	})
	if err != nil {
		c.logger.Warn("transfer not accepted by gateway",
			zap.String("app_id", reqBody.AppID),
			zap.Error(err),
		)
		return wrapGatewayErr("transfer", err)
	}
	return nil
}

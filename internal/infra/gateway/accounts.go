package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/larkin/bankview-go/internal/domain"
	"github.com/larkin/bankview-go/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
)

// MyAccounts fetches the session's account list via GET /account/myaccounts.
func (c *Client) MyAccounts(ctx context.Context, token string) ([]domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Client.MyAccounts")
	defer span.End()

	var accounts []domain.Account

	err := c.do(ctx, func() error {
		req, err := c.newJSONRequest(ctx, http.MethodGet, "/account/myaccounts", token, nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized {
			return resilience.Permanent(&domain.ErrUnauthorized{})
		}
		if resp.StatusCode != http.StatusOK {
			return &domain.ErrGatewayRejected{Operation: "myaccounts", Status: resp.StatusCode}
		}

		return json.NewDecoder(resp.Body).Decode(&accounts)
	})
	if err != nil {
		return nil, wrapGatewayErr("myaccounts", err)
	}

	span.SetAttributes(attribute.Int("account_count", len(accounts)))
	return accounts, nil
}

// Banks fetches the bank directory via GET /account/banks.
func (c *Client) Banks(ctx context.Context, token string) ([]domain.Bank, error) {
	ctx, span := tracer.Start(ctx, "Client.Banks")
	defer span.End()

	var banks []domain.Bank

	err := c.do(ctx, func() error {
		req, err := c.newJSONRequest(ctx, http.MethodGet, "/account/banks", token, nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized {
			return resilience.Permanent(&domain.ErrUnauthorized{})
		}
		if resp.StatusCode != http.StatusOK {
			return &domain.ErrGatewayRejected{Operation: "banks", Status: resp.StatusCode}
		}

		return json.NewDecoder(resp.Body).Decode(&banks)
	})
	if err != nil {
		return nil, wrapGatewayErr("banks", err)
	}
	return banks, nil
}

// CreateAccount opens a new account via POST /account/new and returns it.
// Not retried: the endpoint carries no idempotency key, so a retry after an
// ambiguous failure could open the account twice.
func (c *Client) CreateAccount(ctx context.Context, token string, reqBody *domain.NewAccountRequest) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Client.CreateAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account_name", reqBody.Name))

	var account domain.Account

	err := c.do(ctx, func() error {
		req, err := c.newJSONRequest(ctx, http.MethodPost, "/account/new", token, reqBody)
		if err != nil {
			return resilience.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return resilience.Permanent(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized {
			return resilience.Permanent(&domain.ErrUnauthorized{})
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return resilience.Permanent(&domain.ErrGatewayRejected{Operation: "new account", Status: resp.StatusCode})
		}

		return resilience.Permanent(json.NewDecoder(resp.Body).Decode(&account))
	})
	if err != nil {
		return nil, wrapGatewayErr("new account", err)
	}
	return &account, nil
}

package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/larkin/bankview-go/internal/domain"
	"github.com/larkin/bankview-go/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
)

// Login exchanges credentials for a bearer token via POST /login.
// A definitive 401 is not retried.
func (c *Client) Login(ctx context.Context, username, password string) (*domain.Credentials, error) {
	ctx, span := tracer.Start(ctx, "Client.Login")
	defer span.End()
	span.SetAttributes(attribute.String("username", username))

	var creds domain.Credentials

	err := c.do(ctx, func() error {
		req, err := c.newJSONRequest(ctx, http.MethodPost, "/login", "", &domain.LoginRequest{
			Username: username,
			Password: password,
		})
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return resilience.Permanent(&domain.ErrUnauthorized{Message: "invalid credentials"})
		}
		if resp.StatusCode != http.StatusOK {
			return &domain.ErrGatewayRejected{Operation: "login", Status: resp.StatusCode}
		}

		return json.NewDecoder(resp.Body).Decode(&creds)
	})
	if err != nil {
		return nil, wrapGatewayErr("login", err)
	}
	return &creds, nil
}

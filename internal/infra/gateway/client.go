// Package gateway is the HTTP client for the backend banking gateway. It
// owns the wire formats and the resilience envelope (retry, circuit
// breaker, bulkhead); it holds no state of its own.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/larkin/bankview-go/internal/domain"
	"github.com/larkin/bankview-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("gateway")

// Client talks to the backend gateway.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	cfg        resilience.Config
	logger     *zap.Logger
}

// NewClient creates a gateway client.
func NewClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		bulkhead:   resilience.NewBulkhead(maxConcurrency),
		cfg:        cfg,
		logger:     logger,
	}
}

// do runs one gateway call inside the bulkhead and circuit breaker,
// retrying transient failures. fn performs a single HTTP exchange.
func (c *Client) do(ctx context.Context, fn func() error) error {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return err
	}
	defer c.bulkhead.Release()

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, fn)
	})
	return err
}

// wrapGatewayErr maps transport-level failures to ErrExternalService while
// letting definitive gateway answers (unauthorized, rejected, not found)
// pass through typed.
func wrapGatewayErr(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.ErrCircuitOpen{Service: "gateway"}
	}
	var unauthorized *domain.ErrUnauthorized
	var rejected *domain.ErrGatewayRejected
	var notFound *domain.ErrNotFound
	if errors.As(err, &unauthorized) || errors.As(err, &rejected) || errors.As(err, &notFound) {
		return err
	}
	return &domain.ErrExternalService{Service: "gateway/" + operation, Err: err}
}

// newJSONRequest builds a request with the standard headers. token may be
// empty for unauthenticated endpoints.
func (c *Client) newJSONRequest(ctx context.Context, method, path, token string, body any) (*http.Request, error) {
	var buf *bytes.Buffer
	if body != nil {
		buf = &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	var req *http.Request
	var err error
	if buf != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

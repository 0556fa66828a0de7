// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the core state
// layer from the concrete gateway client.
package port

import (
	"context"

	"github.com/larkin/bankview-go/internal/domain"
)

// AuthGateway issues credentials from the backend gateway.
type AuthGateway interface {
	Login(ctx context.Context, username, password string) (*domain.Credentials, error)
}

// AccountGateway reads and creates accounts on the backend gateway.
// Every call is bearer-authenticated with the session token.
type AccountGateway interface {
	MyAccounts(ctx context.Context, token string) ([]domain.Account, error)
	Banks(ctx context.Context, token string) ([]domain.Bank, error)
	CreateAccount(ctx context.Context, token string, req *domain.NewAccountRequest) (*domain.Account, error)
}

// PaymentGateway submits transfers to the backend gateway. A nil return
// means the gateway accepted the transfer; a rejection surfaces as
// domain.ErrGatewayRejected.
type PaymentGateway interface {
	Transfer(ctx context.Context, token string, req *domain.TransferRequest) error
}

// AccountRefresher forces a full authoritative refetch of the account
// collection. Used as the compensation fallback when a reverse delta
// cannot be applied.
type AccountRefresher interface {
	Refresh(ctx context.Context) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

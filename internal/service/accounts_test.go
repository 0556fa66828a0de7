package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/larkin/bankview-go/internal/domain"
	"github.com/larkin/bankview-go/internal/infra/observability"
	"github.com/larkin/bankview-go/internal/service"
	"github.com/larkin/bankview-go/internal/session"
	"github.com/larkin/bankview-go/internal/store"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockAccountGateway struct {
	mu           sync.Mutex
	accounts     []domain.Account
	banks        []domain.Bank
	created      *domain.Account
	err          error
	accountCalls int32
	bankCalls    int32

	// onMyAccounts, when set, runs inside the fetch. Used to simulate a
	// logout landing while the request is in flight.
	onMyAccounts func()
}

func (m *mockAccountGateway) MyAccounts(_ context.Context, _ string) ([]domain.Account, error) {
	atomic.AddInt32(&m.accountCalls, 1)
	if m.onMyAccounts != nil {
		m.onMyAccounts()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts, m.err
}

func (m *mockAccountGateway) Banks(_ context.Context, _ string) ([]domain.Bank, error) {
	atomic.AddInt32(&m.bankCalls, 1)
	return m.banks, m.err
}

func (m *mockAccountGateway) CreateAccount(_ context.Context, _ string, _ *domain.NewAccountRequest) (*domain.Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.created, nil
}

type memCredStore struct {
	creds *domain.Credentials
}

func (m *memCredStore) Get() (*domain.Credentials, error) { return m.creds, nil }
func (m *memCredStore) Set(c *domain.Credentials) error   { m.creds = c; return nil }
func (m *memCredStore) Remove() error                     { m.creds = nil; return nil }

func newAccountsService(gw *mockAccountGateway) (*service.AccountsService, *store.AccountStore) {
	accounts := store.New()
	sess := session.New(&memCredStore{}, zap.NewNop())
	svc := service.NewAccountsService(accounts, sess, gw, observability.NewMetrics(), zap.NewNop())
	return svc, accounts
}

// --- Initial fetch ---

func TestEnsureLoaded_FetchesOncePerSession(t *testing.T) {
	gw := &mockAccountGateway{accounts: []domain.Account{
		{AccountID: 1, Balance: 1000},
	}}
	svc, accounts := newAccountsService(gw)

	for i := 0; i < 3; i++ {
		if err := svc.EnsureLoaded(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if n := atomic.LoadInt32(&gw.accountCalls); n != 1 {
		t.Errorf("expected exactly 1 gateway fetch, got %d", n)
	}
	if len(accounts.Snapshot()) != 1 {
		t.Error("expected accounts loaded")
	}
}

func TestEnsureLoaded_ConcurrentActivationsFetchOnce(t *testing.T) {
	gw := &mockAccountGateway{accounts: []domain.Account{{AccountID: 1}}}
	svc, _ := newAccountsService(gw)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.EnsureLoaded(context.Background())
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&gw.accountCalls); n != 1 {
		t.Errorf("expected exactly 1 gateway fetch under contention, got %d", n)
	}
}

func TestEnsureLoaded_FailedFetchDoesNotRearm(t *testing.T) {
	gw := &mockAccountGateway{err: errors.New("gateway down")}
	svc, accounts := newAccountsService(gw)

	if err := svc.EnsureLoaded(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	// The flag is single-shot per session: a failed attempt still counts
	// as attempted until a session reset.
	if !accounts.HasAttemptedLoad() {
		t.Error("expected load flag to remain set after failure")
	}
	if err := svc.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("unexpected error on second call: %v", err)
	}
	if n := atomic.LoadInt32(&gw.accountCalls); n != 1 {
		t.Errorf("expected no refetch without reset, got %d calls", n)
	}
}

func TestFetch_LogoutInFlightDiscardsResult(t *testing.T) {
	gw := &mockAccountGateway{accounts: []domain.Account{{AccountID: 1, Balance: 1000}}}
	svc, accounts := newAccountsService(gw)
	gw.onMyAccounts = accounts.Reset

	err := svc.EnsureLoaded(context.Background())
	var stale *domain.ErrStaleSession
	if !errors.As(err, &stale) {
		t.Fatalf("expected ErrStaleSession, got %v", err)
	}
	if len(accounts.Snapshot()) != 0 {
		t.Error("expected in-flight result discarded after reset")
	}
}

// --- Refresh ---

func TestRefresh_SupersedesOptimisticDeltas(t *testing.T) {
	gw := &mockAccountGateway{accounts: []domain.Account{{AccountID: 1, Balance: 1000}}}
	svc, accounts := newAccountsService(gw)

	if err := svc.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := accounts.ApplyDelta(1, -400); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, _ := accounts.Get(1)
	if a.Balance != 1000 {
		t.Errorf("expected authoritative balance 1000 after refresh, got %d", a.Balance)
	}
}

// --- CreateAccount ---

func TestCreateAccount_MergesResult(t *testing.T) {
	gw := &mockAccountGateway{
		accounts: []domain.Account{{AccountID: 1, Balance: 1000}},
		created:  &domain.Account{AccountID: 2, Name: "savings", Balance: 0},
	}
	svc, accounts := newAccountsService(gw)
	if err := svc.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	created, err := svc.CreateAccount(context.Background(), &domain.NewAccountRequest{Name: "savings"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.AccountID != 2 {
		t.Errorf("expected account 2 back, got %d", created.AccountID)
	}

	snap := accounts.Snapshot()
	if len(snap) != 2 || snap[1].AccountID != 2 {
		t.Errorf("expected created account merged into store, got %+v", snap)
	}
}

func TestCreateAccount_Validation(t *testing.T) {
	svc, _ := newAccountsService(&mockAccountGateway{})

	cases := []struct {
		name string
		req  *domain.NewAccountRequest
	}{
		{"missing name", &domain.NewAccountRequest{}},
		{"negative balance", &domain.NewAccountRequest{Name: "x", InitialBalance: -1}},
		{"balance without funding source", &domain.NewAccountRequest{Name: "x", InitialBalance: 100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateAccount(context.Background(), tc.req)
			var validation *domain.ErrValidation
			if !errors.As(err, &validation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

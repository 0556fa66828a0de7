package session_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/larkin/bankview-go/internal/domain"
	"github.com/larkin/bankview-go/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// --- Helpers ---

// signedToken mints a token the way the demo gateway does.
func signedToken(t *testing.T, username string, roles []string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"roles":    roles,
		"exp":      expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func tokenWithoutExpiry(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "sam",
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// memCredStore is an in-memory CredentialStore for tests.
type memCredStore struct {
	creds   *domain.Credentials
	removed bool
}

func (m *memCredStore) Get() (*domain.Credentials, error) { return m.creds, nil }
func (m *memCredStore) Set(c *domain.Credentials) error   { m.creds = c; return nil }
func (m *memCredStore) Remove() error                     { m.creds = nil; m.removed = true; return nil }

// --- Login / Logout ---

func TestLogin_PopulatesSession(t *testing.T) {
	s := session.New(&memCredStore{}, zap.NewNop())

	s.Login(domain.Credentials{
		Username: "sam",
		Roles:    []string{"user", "admin"},
		Token:    signedToken(t, "sam", []string{"user"}, time.Now().Add(time.Hour)),
	})

	snap := s.Snapshot()
	if !snap.LoggedIn {
		t.Fatal("expected logged in")
	}
	if snap.Username != "sam" {
		t.Errorf("expected username 'sam', got '%s'", snap.Username)
	}
	if !s.HasRole("admin") {
		t.Error("expected admin role")
	}
	if s.HasRole("auditor") {
		t.Error("unexpected auditor role")
	}
}

func TestLogin_LastLoginWins(t *testing.T) {
	s := session.New(&memCredStore{}, zap.NewNop())
	tok := signedToken(t, "x", nil, time.Now().Add(time.Hour))

	s.Login(domain.Credentials{Username: "first", Roles: []string{"admin"}, Token: tok})
	s.Login(domain.Credentials{Username: "second", Roles: []string{"user"}, Token: tok})

	snap := s.Snapshot()
	if snap.Username != "second" {
		t.Errorf("expected last login to win, got '%s'", snap.Username)
	}
	if s.HasRole("admin") {
		t.Error("expected roles overwritten by last login")
	}
}

func TestLogout_ClearsEverythingAndIsIdempotent(t *testing.T) {
	creds := &memCredStore{}
	s := session.New(creds, zap.NewNop())
	s.Login(domain.Credentials{
		Username: "sam",
		Roles:    []string{"user"},
		Token:    signedToken(t, "sam", nil, time.Now().Add(time.Hour)),
	})

	s.Logout()
	s.Logout()

	snap := s.Snapshot()
	if snap.LoggedIn || snap.Username != "" || len(snap.Roles) != 0 {
		t.Errorf("expected cleared session, got %+v", snap)
	}
	if s.HasRole("user") {
		t.Error("expected no roles after logout")
	}
	if !creds.removed {
		t.Error("expected persisted copy removed")
	}
}

// --- Expiry ---

func TestIsExpired_FailsClosed(t *testing.T) {
	s := session.New(&memCredStore{}, zap.NewNop())

	cases := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong segment count", "a.b"},
		{"undecodable payload", "aGVhZGVy.!!!.c2ln"},
		{"no expiry claim", tokenWithoutExpiry(t)},
		{"expired", signedToken(t, "sam", nil, time.Now().Add(-time.Minute))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !s.IsExpired(tc.token) {
				t.Error("expected token to be treated as expired")
			}
		})
	}

	if s.IsExpired(signedToken(t, "sam", nil, time.Now().Add(time.Hour))) {
		t.Error("expected live token not expired")
	}
}

func TestLoggedIn_ExpiryObservedClearsSession(t *testing.T) {
	creds := &memCredStore{}
	s := session.New(creds, zap.NewNop())
	s.Login(domain.Credentials{
		Username: "sam",
		Token:    signedToken(t, "sam", nil, time.Now().Add(50*time.Millisecond)),
	})

	if !s.LoggedIn() {
		t.Fatal("expected live session")
	}

	time.Sleep(100 * time.Millisecond)

	if s.LoggedIn() {
		t.Fatal("expected session to read as logged out after expiry")
	}
	snap := s.Snapshot()
	if snap.LoggedIn || len(snap.Roles) != 0 {
		t.Errorf("expected cleared session after expiry, got %+v", snap)
	}
}

// --- Restore ---

func TestRestore_NoPersistedRecord(t *testing.T) {
	s := session.New(&memCredStore{}, zap.NewNop())

	if s.Restore() {
		t.Fatal("expected restore to fail with no persisted record")
	}
	if s.Snapshot().LoggedIn {
		t.Error("expected session untouched")
	}
}

func TestRestore_ExpiredTokenClearsPersistedCopy(t *testing.T) {
	creds := &memCredStore{creds: &domain.Credentials{
		Username: "sam",
		Roles:    []string{"user"},
		Token:    signedToken(t, "sam", nil, time.Now().Add(-time.Hour)),
	}}
	s := session.New(creds, zap.NewNop())

	if s.Restore() {
		t.Fatal("expected restore to fail for expired token")
	}
	if s.Snapshot().LoggedIn {
		t.Error("expected session to remain anonymous")
	}
	if !creds.removed {
		t.Error("expected expired persisted copy cleared")
	}
}

func TestRestore_UnparseableTokenFailsClosed(t *testing.T) {
	creds := &memCredStore{creds: &domain.Credentials{
		Username: "sam",
		Token:    "three.bad.segments",
	}}
	s := session.New(creds, zap.NewNop())

	if s.Restore() {
		t.Fatal("expected restore to fail for unparseable token")
	}
	if !creds.removed {
		t.Error("expected unparseable persisted copy cleared")
	}
}

func TestRestore_LiveTokenLogsIn(t *testing.T) {
	creds := &memCredStore{creds: &domain.Credentials{
		Username: "sam",
		Roles:    []string{"user"},
		Token:    signedToken(t, "sam", []string{"user"}, time.Now().Add(time.Hour)),
	}}
	s := session.New(creds, zap.NewNop())

	if !s.Restore() {
		t.Fatal("expected restore to succeed")
	}
	snap := s.Snapshot()
	if !snap.LoggedIn || snap.Username != "sam" {
		t.Errorf("expected restored session for sam, got %+v", snap)
	}
}

// --- File store ---

func TestFileCredentialStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "login")
	fs := session.NewFileCredentialStore(path, "machine-secret")

	want := &domain.Credentials{
		Username: "sam",
		Roles:    []string{"user"},
		Token:    "tok",
	}
	if err := fs.Set(want); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := fs.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Username != "sam" || got.Token != "tok" {
		t.Errorf("expected persisted creds back, got %+v", got)
	}

	if err := fs.Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got, err = fs.Get()
	if err != nil {
		t.Fatalf("get after remove: %v", err)
	}
	if got != nil {
		t.Error("expected no record after remove")
	}
}

func TestFileCredentialStore_WrongKeyReadsAsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "login")

	writer := session.NewFileCredentialStore(path, "key-one")
	if err := writer.Set(&domain.Credentials{Username: "sam", Token: "tok"}); err != nil {
		t.Fatalf("set: %v", err)
	}

	reader := session.NewFileCredentialStore(path, "key-two")
	got, err := reader.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected undecryptable record to read as absent")
	}
}

func TestFileCredentialStore_RemoveMissingIsNoError(t *testing.T) {
	fs := session.NewFileCredentialStore(filepath.Join(t.TempDir(), "login"), "k")
	if err := fs.Remove(); err != nil {
		t.Errorf("expected no error removing absent record, got %v", err)
	}
}

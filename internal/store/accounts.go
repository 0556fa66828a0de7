// Package store holds the session-scoped account collection and reconciles
// server-authoritative data with locally-applied optimistic updates.
package store

import (
	"sort"
	"strconv"
	"sync"

	"github.com/larkin/bankview-go/internal/domain"
)

// AccountStore maintains the unique-by-AccountID set of the session's
// accounts, always sorted ascending by AccountID. One instance belongs to
// exactly one session; all mutation goes through the methods below.
//
// The generation counter is the stale-response guard: a fetch captures the
// generation before going to the network, and merges its result only if the
// generation is unchanged when it lands. Reset (logout) bumps the
// generation, so in-flight results against the old session are discarded.
type AccountStore struct {
	mu         sync.RWMutex
	accounts   []domain.Account
	triedLoad  bool
	generation uint64
}

// New creates an empty AccountStore.
func New() *AccountStore {
	return &AccountStore{}
}

// ReplaceAll makes the given accounts the new state verbatim, re-sorted by
// AccountID. Server results are authoritative: any locally-applied
// optimistic deltas are superseded.
func (s *AccountStore) ReplaceAll(accounts []domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(accounts)
}

// ReplaceAllIfCurrent is ReplaceAll guarded by the generation captured when
// the fetch started. It reports whether the result was applied; a false
// return means the session was reset mid-flight and the result dropped.
func (s *AccountStore) ReplaceAllIfCurrent(gen uint64, accounts []domain.Account) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.replaceLocked(accounts)
	return true
}

func (s *AccountStore) replaceLocked(accounts []domain.Account) {
	// A batch may carry duplicate ids; last one wins.
	byID := make(map[int32]domain.Account, len(accounts))
	for _, a := range accounts {
		byID[a.AccountID] = a
	}
	next := make([]domain.Account, 0, len(byID))
	for _, a := range byID {
		next = append(next, a)
	}
	sortAccounts(next)
	s.accounts = next
}

// Merge upserts each update by AccountID: an existing account has its
// mutable fields overwritten, an unknown one is inserted. Duplicate ids
// within one batch resolve to the last occurrence. The operation is
// idempotent and order-tolerant; the collection stays sorted.
func (s *AccountStore) Merge(updates []domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeLocked(updates)
}

// MergeIfCurrent is Merge guarded by a previously captured generation.
func (s *AccountStore) MergeIfCurrent(gen uint64, updates []domain.Account) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.mergeLocked(updates)
	return true
}

func (s *AccountStore) mergeLocked(updates []domain.Account) {
	byID := make(map[int32]domain.Account, len(s.accounts)+len(updates))
	for _, a := range s.accounts {
		byID[a.AccountID] = a
	}
	for _, u := range updates {
		byID[u.AccountID] = u
	}
	next := make([]domain.Account, 0, len(byID))
	for _, a := range byID {
		next = append(next, a)
	}
	sortAccounts(next)
	s.accounts = next
}

// ApplyDelta adjusts one account's balance by the signed amount, without a
// network round trip. Returns ErrNotFound if the account is absent — the
// server is the source of truth, so an unknown id is reported, never fatal.
func (s *AccountStore) ApplyDelta(accountID int32, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.indexLocked(accountID)
	if !ok {
		return &domain.ErrNotFound{Resource: "account", ID: strconv.Itoa(int(accountID))}
	}
	s.accounts[i].Balance += delta
	return nil
}

// Get returns the account with the given id, if present.
func (s *AccountStore) Get(accountID int32) (domain.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i, ok := s.indexLocked(accountID); ok {
		return s.accounts[i], true
	}
	return domain.Account{}, false
}

// Snapshot returns a read-only copy of the collection for the view layer.
func (s *AccountStore) Snapshot() []domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Account, len(s.accounts))
	copy(out, s.accounts)
	return out
}

// TryBeginLoad atomically checks and sets the single-shot load flag,
// returning the current generation alongside. Exactly one of any number of
// overlapping callers gets true; the rest observe the flag already set and
// must decline to refetch.
func (s *AccountStore) TryBeginLoad() (gen uint64, first bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.triedLoad {
		return s.generation, false
	}
	s.triedLoad = true
	return s.generation, true
}

// MarkLoadAttempted sets the single-shot load flag unconditionally.
func (s *AccountStore) MarkLoadAttempted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triedLoad = true
}

// HasAttemptedLoad reports whether the initial fetch was already issued
// this session. Only Reset clears it.
func (s *AccountStore) HasAttemptedLoad() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.triedLoad
}

// Generation returns the current session generation for use with
// ReplaceAllIfCurrent / MergeIfCurrent.
func (s *AccountStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Reset discards all accounts and the load flag, and bumps the generation
// so results still in flight for the old session are dropped on arrival.
// Called on logout.
func (s *AccountStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = nil
	s.triedLoad = false
	s.generation++
}

// indexLocked binary-searches the sorted collection.
func (s *AccountStore) indexLocked(accountID int32) (int, bool) {
	i := sort.Search(len(s.accounts), func(i int) bool {
		return s.accounts[i].AccountID >= accountID
	})
	if i < len(s.accounts) && s.accounts[i].AccountID == accountID {
		return i, true
	}
	return 0, false
}

func sortAccounts(accounts []domain.Account) {
	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].AccountID < accounts[j].AccountID
	})
}

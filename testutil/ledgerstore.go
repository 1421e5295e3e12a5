package testutil

import (
	"context"
	"sync"

	"github.com/onnwee/prodscout/ledger"
)

// MemLedgerStore is an in-memory ledger.Store for tests. Debit and Credit hold
// the store mutex across the read-modify-write, matching the atomicity the real
// Postgres store gets from guarded single-statement updates.
type MemLedgerStore struct {
	mu       sync.Mutex
	accounts map[string]ledger.Account

	// Err, when set, is returned by every operation to simulate store outage.
	Err error
}

func NewMemLedgerStore() *MemLedgerStore {
	return &MemLedgerStore{accounts: make(map[string]ledger.Account)}
}

// Account returns a copy of the stored record and whether it exists.
func (s *MemLedgerStore) Account(id string) (ledger.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	return a, ok
}

func (s *MemLedgerStore) Get(ctx context.Context, id string) (*ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	a, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := a
	return &cp, nil
}

func (s *MemLedgerStore) Create(ctx context.Context, a ledger.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.accounts[a.ID]; !ok {
		s.accounts[a.ID] = a
	}
	return nil
}

func (s *MemLedgerStore) Reset(ctx context.Context, id string, credits, month int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	a, ok := s.accounts[id]
	if !ok || a.LastResetMonth == month {
		return nil
	}
	a.Credits = credits
	a.LastResetMonth = month
	s.accounts[id] = a
	return nil
}

func (s *MemLedgerStore) Debit(ctx context.Context, id string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, false, s.Err
	}
	a, ok := s.accounts[id]
	if !ok || a.Credits <= 0 {
		return 0, false, nil
	}
	a.Credits--
	s.accounts[id] = a
	return a.Credits, true, nil
}

func (s *MemLedgerStore) Credit(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	a, ok := s.accounts[id]
	if !ok {
		return false, nil
	}
	a.Credits++
	s.accounts[id] = a
	return true, nil
}

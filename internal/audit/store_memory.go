package audit

import (
	"context"
	"sync"

	"payflow/pkg/domain"
)

// InMemoryStore keeps the ledger lightweight and testable. It intentionally
// favors clarity over performance.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[domain.PayoutID][]Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[domain.PayoutID][]Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.PayoutID] = append(s.entries[entry.PayoutID], entry)
	return nil
}

// ListByPayout returns a snapshot in insertion order. Callers may hold the
// slice without observing later appends.
func (s *InMemoryStore) ListByPayout(_ context.Context, payoutID domain.PayoutID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry{}, s.entries[payoutID]...), nil
}

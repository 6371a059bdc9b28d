package vendors

import (
	"context"
	"sync"

	"payflow/pkg/domain"
	"payflow/pkg/platform/sentinel"
)

type Store interface {
	Create(ctx context.Context, v *Vendor) error
	FindByID(ctx context.Context, id domain.VendorID) (*Vendor, error)
	List(ctx context.Context) ([]*Vendor, error)
}

// InMemoryStore keeps vendor records for dev and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	vendors map[domain.VendorID]*Vendor
	order   []domain.VendorID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{vendors: make(map[domain.VendorID]*Vendor)}
}

func (s *InMemoryStore) Create(_ context.Context, v *Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.vendors[v.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := *v
	s.vendors[v.ID] = &copied
	s.order = append(s.order, v.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.VendorID) (*Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vendors[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *v
	return &copied, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]*Vendor, 0, len(s.order))
	for _, id := range s.order {
		copied := *s.vendors[id]
		results = append(results, &copied)
	}
	return results, nil
}

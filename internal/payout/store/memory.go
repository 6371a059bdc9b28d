package store

import (
	"context"
	"sync"

	"payflow/internal/payout/models"
	"payflow/pkg/domain"
	"payflow/pkg/platform/sentinel"
)

// InMemory keeps the initial implementation lightweight and testable. It
// intentionally favors clarity over performance.
type InMemory struct {
	mu      sync.RWMutex
	payouts map[domain.PayoutID]*models.Payout
	order   []domain.PayoutID
}

func NewInMemory() *InMemory {
	return &InMemory{payouts: make(map[domain.PayoutID]*models.Payout)}
}

func (s *InMemory) Create(_ context.Context, payout *models.Payout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.payouts[payout.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := *payout
	s.payouts[payout.ID] = &copied
	s.order = append(s.order, payout.ID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.PayoutID) (*models.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payout, ok := s.payouts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *payout
	return &copied, nil
}

func (s *InMemory) List(_ context.Context, filter Filter) ([]*models.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]*models.Payout, 0, len(s.order))
	// Insertion order is creation order; walk it backwards for newest-first.
	for i := len(s.order) - 1; i >= 0; i-- {
		payout := s.payouts[s.order[i]]
		if filter.Status != "" && payout.Status != filter.Status {
			continue
		}
		if !filter.VendorID.IsNil() && payout.VendorID != filter.VendorID {
			continue
		}
		copied := *payout
		results = append(results, &copied)
	}
	return results, nil
}

func (s *InMemory) ApplyTransition(_ context.Context, id domain.PayoutID, expectedStatus, newStatus domain.PayoutStatus, decisionReason string) (*models.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payout, ok := s.payouts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if payout.Status != expectedStatus {
		return nil, sentinel.ErrInvalidState
	}
	payout.Status = newStatus
	if newStatus == domain.StatusRejected {
		payout.DecisionReason = decisionReason
	}
	copied := *payout
	return &copied, nil
}

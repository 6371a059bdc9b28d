package store

import (
	"context"

	"payflow/internal/payout/models"
	"payflow/pkg/domain"
)

// Filter narrows List results. Fields are conjunctive; zero values impose no
// constraint.
type Filter struct {
	Status   domain.PayoutStatus
	VendorID domain.VendorID
}

// Store is the durable holder of payout records, used only by the payout
// service. It never checks roles; authorization is the service's job.
//
// Stores are interface-driven to keep the domain logic testable and to allow
// swapping in-memory and Postgres persistence without rewiring business code.
type Store interface {
	Create(ctx context.Context, payout *models.Payout) error
	FindByID(ctx context.Context, id domain.PayoutID) (*models.Payout, error)
	// List returns matching payouts newest-first. That reverse creation
	// order is the only externally observed ordering and the UI depends
	// on it.
	List(ctx context.Context, filter Filter) ([]*models.Payout, error)
	// ApplyTransition writes newStatus (and, for rejections, the decision
	// reason) if and only if the payout is still in expectedStatus. It is a
	// compare-and-swap: a racing writer that got there first leaves the
	// current status unequal to expectedStatus, and the loser gets
	// sentinel.ErrInvalidState, never a silent overwrite.
	ApplyTransition(ctx context.Context, id domain.PayoutID, expectedStatus, newStatus domain.PayoutStatus, decisionReason string) (*models.Payout, error)
}

package audit

import (
	"time"

	"github.com/google/uuid"

	"payflow/pkg/domain"
)

// Entry is one append-only record of a payout status change. Entries are
// owned by their payout, never mutated, and ordered by insertion.
type Entry struct {
	ID             uuid.UUID           `json:"id"`
	PayoutID       domain.PayoutID     `json:"payout_id"`
	Action         domain.AuditAction  `json:"action"`
	PerformedBy    domain.Principal    `json:"performed_by"`
	PreviousStatus domain.PayoutStatus `json:"previous_status,omitempty"`
	NewStatus      domain.PayoutStatus `json:"new_status"`
	Timestamp      time.Time           `json:"timestamp"`
}

// NewEntry builds an entry for a completed transition. PreviousStatus is
// empty for Created.
func NewEntry(payoutID domain.PayoutID, action domain.AuditAction, performedBy domain.Principal, previous, next domain.PayoutStatus, ts time.Time) Entry {
	return Entry{
		ID:             uuid.New(),
		PayoutID:       payoutID,
		Action:         action,
		PerformedBy:    performedBy,
		PreviousStatus: previous,
		NewStatus:      next,
		Timestamp:      ts,
	}
}

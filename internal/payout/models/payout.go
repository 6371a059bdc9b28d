package models

import (
	"strings"
	"time"

	"payflow/pkg/domain"
	dErrors "payflow/pkg/domain-errors"
)

// Payout is the aggregate root for a vendor payout request.
//
// Invariants:
//   - Amount is strictly positive (minor units, scale 2)
//   - Mode is one of UPI, IMPS, NEFT
//   - VendorID resolves to an active vendor at creation time only; later
//     transitions never re-validate the vendor
//   - DecisionReason is present iff Status == Rejected
//   - Once Status is Approved or Rejected the record is terminal
//   - CreatedBy, CreatedAt, Note and VendorID are immutable after creation
type Payout struct {
	ID             domain.PayoutID     `json:"id"`
	VendorID       domain.VendorID     `json:"vendor_id"`
	Amount         domain.Amount       `json:"amount"`
	Mode           domain.PayoutMode   `json:"mode"`
	Note           string              `json:"note,omitempty"`
	Status         domain.PayoutStatus `json:"status"`
	DecisionReason string              `json:"decision_reason,omitempty"`
	CreatedBy      domain.Principal    `json:"created_by"`
	CreatedAt      time.Time           `json:"created_at"`
}

// NewPayout validates invariants and returns a Draft payout. Vendor
// resolution is the caller's responsibility; the aggregate only checks its
// own fields.
func NewPayout(vendorID domain.VendorID, amount domain.Amount, mode domain.PayoutMode, note string, creator domain.Principal, now time.Time) (*Payout, error) {
	if vendorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "vendor id is required")
	}
	if amount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "amount must be positive")
	}
	if !mode.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid payout mode")
	}
	return &Payout{
		ID:        domain.NewPayoutID(),
		VendorID:  vendorID,
		Amount:    amount,
		Mode:      mode,
		Note:      strings.TrimSpace(note),
		Status:    domain.StatusDraft,
		CreatedBy: creator,
		CreatedAt: now,
	}, nil
}

func (p *Payout) IsTerminal() bool { return p.Status.IsTerminal() }

// CanSubmit checks the Draft -> Submitted transition. Returns an error if the
// transition is not allowed. Use with ApplySubmit under the store's
// compare-and-swap so racing writers cannot both succeed.
func (p *Payout) CanSubmit() error {
	if !p.Status.CanTransitionTo(domain.StatusSubmitted) {
		return dErrors.New(dErrors.CodeInvalidTransition, "payout cannot be submitted from status "+p.Status.String())
	}
	return nil
}

// ApplySubmit transitions the payout to Submitted. Call CanSubmit first.
func (p *Payout) ApplySubmit() {
	p.Status = domain.StatusSubmitted
}

// CanApprove checks the Submitted -> Approved transition.
func (p *Payout) CanApprove() error {
	if !p.Status.CanTransitionTo(domain.StatusApproved) {
		return dErrors.New(dErrors.CodeInvalidTransition, "payout cannot be approved from status "+p.Status.String())
	}
	return nil
}

// ApplyApprove transitions the payout to Approved. Call CanApprove first.
func (p *Payout) ApplyApprove() {
	p.Status = domain.StatusApproved
}

// CanReject checks the Submitted -> Rejected transition and that a
// non-empty decision reason was supplied.
func (p *Payout) CanReject(reason string) error {
	if !p.Status.CanTransitionTo(domain.StatusRejected) {
		return dErrors.New(dErrors.CodeInvalidTransition, "payout cannot be rejected from status "+p.Status.String())
	}
	if strings.TrimSpace(reason) == "" {
		return dErrors.New(dErrors.CodeValidation, "decision reason is required to reject a payout")
	}
	return nil
}

// ApplyReject transitions the payout to Rejected and records the reason.
// Call CanReject first.
func (p *Payout) ApplyReject(reason string) {
	p.Status = domain.StatusRejected
	p.DecisionReason = strings.TrimSpace(reason)
}

package models

import (
	"payflow/internal/audit"
	"payflow/pkg/domain"
)

// CreatePayoutRequest is the POST /payouts body.
type CreatePayoutRequest struct {
	VendorID string        `json:"vendor_id"`
	Amount   domain.Amount `json:"amount"`
	Mode     string        `json:"mode"`
	Note     string        `json:"note"`
}

// RejectPayoutRequest is the POST /payouts/{id}/reject body.
type RejectPayoutRequest struct {
	DecisionReason string `json:"decision_reason"`
}

// PayoutWithTrail is the GET /payouts/{id} response shape the UI consumes.
type PayoutWithTrail struct {
	Payout     *Payout       `json:"payout"`
	AuditTrail []audit.Entry `json:"auditTrail"`
}

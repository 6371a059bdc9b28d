package vendors

import (
	"strings"
	"time"

	"payflow/pkg/domain"
	dErrors "payflow/pkg/domain-errors"
)

// Vendor is a keyed directory record with no lifecycle beyond the active
// flag. The payout core only reads identity and active status; the payout
// credentials exist for the operations UI.
type Vendor struct {
	ID          domain.VendorID `json:"id"`
	Name        string          `json:"name"`
	UPIID       string          `json:"upi_id,omitempty"`
	BankAccount string          `json:"bank_account,omitempty"`
	IFSC        string          `json:"ifsc,omitempty"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Ref is the read-only projection the payout service consumes when
// resolving a vendor at payout creation.
type Ref struct {
	ID       domain.VendorID `json:"id"`
	Name     string          `json:"name"`
	IsActive bool            `json:"is_active"`
}

// NewVendor validates invariants and returns an active vendor.
func NewVendor(name, upiID, bankAccount, ifsc string, now time.Time) (*Vendor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "vendor name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "vendor name must be 128 characters or less")
	}
	return &Vendor{
		ID:          domain.NewVendorID(),
		Name:        name,
		UPIID:       strings.TrimSpace(upiID),
		BankAccount: strings.TrimSpace(bankAccount),
		IFSC:        strings.TrimSpace(ifsc),
		IsActive:    true,
		CreatedAt:   now,
	}, nil
}

// CreateVendorRequest is the POST /vendors body.
type CreateVendorRequest struct {
	Name        string `json:"name"`
	UPIID       string `json:"upi_id"`
	BankAccount string `json:"bank_account"`
	IFSC        string `json:"ifsc"`
}

package domain

import (
	"github.com/google/uuid"

	dErrors "payflow/pkg/domain-errors"
)

// Typed IDs keep payout, vendor, and user identifiers from being swapped at
// call sites. Construct via Parse* at trust boundaries; direct casting
// bypasses validation.

type PayoutID uuid.UUID

type VendorID uuid.UUID

type UserID uuid.UUID

func NewPayoutID() PayoutID { return PayoutID(uuid.New()) }

func NewVendorID() VendorID { return VendorID(uuid.New()) }

func NewUserID() UserID { return UserID(uuid.New()) }

// parseUUID enforces the shared ID invariant: valid, non-nil UUID.
func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is not a valid uuid")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be nil")
	}
	return u, nil
}

// ParsePayoutID constructs a PayoutID from external input.
func ParsePayoutID(s string) (PayoutID, error) {
	u, err := parseUUID(s, "payout")
	return PayoutID(u), err
}

// ParseVendorID constructs a VendorID from external input.
func ParseVendorID(s string) (VendorID, error) {
	u, err := parseUUID(s, "vendor")
	return VendorID(u), err
}

// ParseUserID constructs a UserID from external input.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user")
	return UserID(u), err
}

func (id PayoutID) String() string { return uuid.UUID(id).String() }
func (id VendorID) String() string { return uuid.UUID(id).String() }
func (id UserID) String() string   { return uuid.UUID(id).String() }

func (id PayoutID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id VendorID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

func (id PayoutID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id VendorID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id UserID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }

func (id *PayoutID) UnmarshalText(b []byte) error {
	parsed, err := ParsePayoutID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *VendorID) UnmarshalText(b []byte) error {
	parsed, err := ParseVendorID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

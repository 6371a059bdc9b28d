package domain

import dErrors "payflow/pkg/domain-errors"

// Role is the authorization role carried by an authenticated user.
// OPS creates and submits payouts; FINANCE decides them.
type Role string

const (
	RoleOps     Role = "OPS"
	RoleFinance Role = "FINANCE"
)

var validRoles = map[Role]bool{
	RoleOps:     true,
	RoleFinance: true,
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks the role against the supported enum values.
func (r Role) IsValid() bool {
	return validRoles[r]
}

func (r Role) String() string { return string(r) }

// Principal identifies the authenticated caller of an operation. It is
// embedded in audit entries so the ledger remains meaningful even if the
// user record is later removed.
type Principal struct {
	ID    UserID `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

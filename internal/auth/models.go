package auth

import (
	"time"

	"payflow/pkg/domain"
)

// User is an internal operator account. Only the bcrypt hash of the
// password is ever held or persisted.
type User struct {
	ID           domain.UserID
	Email        string
	PasswordHash string `json:"-"`
	Role         domain.Role
	CreatedAt    time.Time
}

// Principal projects the user into the shape the core consumes.
func (u User) Principal() domain.Principal {
	return domain.Principal{ID: u.ID, Email: u.Email, Role: u.Role}
}

// LoginRequest is the POST /auth/login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the bearer token plus the principal the UI renders.
type LoginResponse struct {
	Token     string           `json:"token"`
	Principal domain.Principal `json:"principal"`
}

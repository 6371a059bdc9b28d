package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"payflow/pkg/domain"
	"payflow/pkg/platform/sentinel"
)

type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

// Save inserts a user, leaving an existing account with the same email
// untouched so seeding can run on every startup.
func (s *PostgresUserStore) Save(ctx context.Context, user User) error {
	query := `
		INSERT INTO users (id, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(user.ID), user.Email, user.PasswordHash, user.Role.String(), user.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) FindByEmail(ctx context.Context, email string) (User, error) {
	query := `
		SELECT id, email, password_hash, role, created_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`
	var (
		user     User
		userUUID uuid.UUID
		role     string
	)
	err := s.db.QueryRowContext(ctx, query, email).
		Scan(&userUUID, &user.Email, &user.PasswordHash, &role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, sentinel.ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("find user: %w", err)
	}
	parsed, err := domain.ParseRole(role)
	if err != nil {
		return User{}, fmt.Errorf("find user: %w", err)
	}
	user.ID = domain.UserID(userUUID)
	user.Role = parsed
	return user, nil
}

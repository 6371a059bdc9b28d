package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"payflow/pkg/domain"
	"payflow/pkg/platform/sentinel"
)

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (User, error)
}

// UserSaver is the write side used by seeding.
type UserSaver interface {
	Save(ctx context.Context, user User) error
}

// InMemoryUserStore holds the operator accounts. Lookup is case-insensitive
// on email.
type InMemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{users: make(map[string]User)}
}

func (s *InMemoryUserStore) Save(_ context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(user.Email)] = user
	return nil
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[strings.ToLower(email)]; ok {
		return user, nil
	}
	return User{}, sentinel.ErrNotFound
}

// Seed installs the demo operator accounts used by the UI. Saves are
// idempotent, so re-running against an already seeded store is safe.
func Seed(ctx context.Context, store UserSaver) error {
	now := time.Now().UTC()
	accounts := []struct {
		email    string
		password string
		role     domain.Role
	}{
		{"ops@payflow.dev", "ops123", domain.RoleOps},
		{"finance@payflow.dev", "finance123", domain.RoleFinance},
	}
	for _, a := range accounts {
		hash, err := HashPassword(a.password)
		if err != nil {
			return err
		}
		user := User{
			ID:           domain.NewUserID(),
			Email:        a.email,
			PasswordHash: hash,
			Role:         a.role,
			CreatedAt:    now,
		}
		if err := store.Save(ctx, user); err != nil {
			return err
		}
	}
	return nil
}

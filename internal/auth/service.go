package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"payflow/internal/jwttoken"
	dErrors "payflow/pkg/domain-errors"
	"payflow/pkg/platform/sentinel"
)

// Service authenticates operators and issues access tokens.
type Service struct {
	users    UserStore
	tokens   *jwttoken.JWTService
	tokenTTL time.Duration
	logger   *slog.Logger
}

func NewService(users UserStore, tokens *jwttoken.JWTService, tokenTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{users: users, tokens: tokens, tokenTTL: tokenTTL, logger: logger}
}

// Login verifies credentials and returns a signed token carrying the
// principal. Failures are uniform so callers cannot probe which emails exist.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResponse{}, dErrors.New(dErrors.CodeBadRequest, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return LoginResponse{}, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return LoginResponse{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if err := VerifyPassword(password, user.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return LoginResponse{}, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return LoginResponse{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify credentials")
	}

	principal := user.Principal()
	token, err := s.tokens.GenerateAccessToken(principal, s.tokenTTL)
	if err != nil {
		return LoginResponse{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}

	s.logger.InfoContext(ctx, "user logged in", "email", principal.Email, "role", principal.Role.String())
	return LoginResponse{Token: token, Principal: principal}, nil
}

package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"payflow/internal/auth"
	"payflow/internal/transport/http/shared"
	dErrors "payflow/pkg/domain-errors"
	"payflow/pkg/requestcontext"
)

// Service defines the auth operations the handler delegates to.
type Service interface {
	Login(ctx context.Context, email, password string) (auth.LoginResponse, error)
}

type Handler struct {
	auth   Service
	logger *slog.Logger
}

func New(authService Service, logger *slog.Logger) *Handler {
	return &Handler{auth: authService, logger: logger}
}

// RegisterPublic mounts the unauthenticated login route.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
}

// RegisterAuthed mounts routes that require a valid token.
func (h *Handler) RegisterAuthed(r chi.Router) {
	r.Get("/auth/me", h.handleMe)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	resp, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(r.Context(), "login failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := requestcontext.Principal(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, principal)
}

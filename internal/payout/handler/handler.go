package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"payflow/internal/payout/models"
	"payflow/internal/payout/store"
	"payflow/internal/transport/http/shared"
	"payflow/pkg/domain"
	dErrors "payflow/pkg/domain-errors"
	"payflow/pkg/requestcontext"
)

// Service defines the payout operations the handler delegates to.
type Service interface {
	CreatePayout(ctx context.Context, principal domain.Principal, req models.CreatePayoutRequest) (*models.Payout, error)
	SubmitPayout(ctx context.Context, principal domain.Principal, id domain.PayoutID) (*models.Payout, error)
	ApprovePayout(ctx context.Context, principal domain.Principal, id domain.PayoutID) (*models.Payout, error)
	RejectPayout(ctx context.Context, principal domain.Principal, id domain.PayoutID, decisionReason string) (*models.Payout, error)
	GetPayoutWithTrail(ctx context.Context, id domain.PayoutID) (*models.PayoutWithTrail, error)
	ListPayouts(ctx context.Context, filter store.Filter) ([]*models.Payout, error)
}

// Handler is the thin HTTP layer over the payout service. It parses input
// and translates errors; business rules stay in the service.
type Handler struct {
	payouts Service
	logger  *slog.Logger
}

func New(payouts Service, logger *slog.Logger) *Handler {
	return &Handler{payouts: payouts, logger: logger}
}

// Register mounts the payout routes. The caller wires auth middleware; every
// route here assumes an authenticated principal in context.
func (h *Handler) Register(r chi.Router) {
	r.Route("/payouts", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Post("/{id}/submit", h.handleSubmit)
		r.Post("/{id}/approve", h.handleApprove)
		r.Post("/{id}/reject", h.handleReject)
	})
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	principal, ok := requestcontext.Principal(r.Context())
	if !ok {
		// Should never happen behind RequireAuth.
		h.logger.ErrorContext(r.Context(), "principal missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(r.Context()),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return domain.Principal{}, false
	}
	return principal, true
}

func (h *Handler) payoutID(w http.ResponseWriter, r *http.Request) (domain.PayoutID, bool) {
	id, err := domain.ParsePayoutID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid payout id"))
		return domain.PayoutID{}, false
	}
	return id, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req models.CreatePayoutRequest
	if err := decodeBody(r.Body, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	payout, err := h.payouts.CreatePayout(r.Context(), principal, req)
	if err != nil {
		h.logFailure(r, "create payout", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, payout)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}

	var filter store.Filter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := domain.ParsePayoutStatus(raw)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid status filter"))
			return
		}
		filter.Status = status
	}
	if raw := r.URL.Query().Get("vendor_id"); raw != "" {
		vendorID, err := domain.ParseVendorID(raw)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid vendor_id filter"))
			return
		}
		filter.VendorID = vendorID
	}

	payouts, err := h.payouts.ListPayouts(r.Context(), filter)
	if err != nil {
		h.logFailure(r, "list payouts", err)
		shared.WriteError(w, err)
		return
	}
	if payouts == nil {
		payouts = []*models.Payout{}
	}
	shared.WriteJSON(w, http.StatusOK, payouts)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}
	id, ok := h.payoutID(w, r)
	if !ok {
		return
	}

	result, err := h.payouts.GetPayoutWithTrail(r.Context(), id)
	if err != nil {
		h.logFailure(r, "get payout", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, func(ctx context.Context, principal domain.Principal, id domain.PayoutID) (*models.Payout, error) {
		return h.payouts.SubmitPayout(ctx, principal, id)
	})
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, func(ctx context.Context, principal domain.Principal, id domain.PayoutID) (*models.Payout, error) {
		return h.payouts.ApprovePayout(ctx, principal, id)
	})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.payoutID(w, r)
	if !ok {
		return
	}

	var req models.RejectPayoutRequest
	if err := decodeBody(r.Body, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	payout, err := h.payouts.RejectPayout(r.Context(), principal, id, req.DecisionReason)
	if err != nil {
		h.logFailure(r, "reject payout", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, payout)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, op func(context.Context, domain.Principal, domain.PayoutID) (*models.Payout, error)) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.payoutID(w, r)
	if !ok {
		return
	}

	payout, err := op(r.Context(), principal, id)
	if err != nil {
		h.logFailure(r, "transition payout", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, payout)
}

func (h *Handler) logFailure(r *http.Request, op string, err error) {
	h.logger.WarnContext(r.Context(), op+" failed",
		"request_id", requestcontext.RequestID(r.Context()),
		"error", err.Error(),
	)
}

// decodeBody parses a JSON body, mapping malformed input to a bad request.
// Amount parse failures inside UnmarshalJSON keep their validation code.
func decodeBody(body io.Reader, dst any) error {
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var de *dErrors.Error
		if errors.As(err, &de) {
			return de
		}
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}

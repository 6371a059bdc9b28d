package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"payflow/internal/transport/http/shared"
	"payflow/internal/vendors"
	"payflow/pkg/domain"
	dErrors "payflow/pkg/domain-errors"
	"payflow/pkg/requestcontext"
)

// Handler serves the vendor directory endpoints. Vendors are a keyed list
// with no lifecycle; only the active flag matters to the payout core.
type Handler struct {
	store     vendors.Store
	directory *vendors.Directory
	logger    *slog.Logger
}

func New(store vendors.Store, directory *vendors.Directory, logger *slog.Logger) *Handler {
	return &Handler{store: store, directory: directory, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/vendors", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list vendors failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list vendors"))
		return
	}
	if list == nil {
		list = []*vendors.Vendor{}
	}
	shared.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	principal, ok := requestcontext.Principal(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	// Vendor records are maintained by Operations.
	if principal.Role != domain.RoleOps {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "role "+principal.Role.String()+" may not create vendors"))
		return
	}

	var req vendors.CreateVendorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	v, err := vendors.NewVendor(req.Name, req.UPIID, req.BankAccount, req.IFSC, requestcontext.Now(r.Context()))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			shared.WriteError(w, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err)))
			return
		}
		shared.WriteError(w, err)
		return
	}

	if err := h.store.Create(r.Context(), v); err != nil {
		h.logger.ErrorContext(r.Context(), "create vendor failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create vendor"))
		return
	}
	h.directory.Invalidate(r.Context(), v.ID)

	shared.WriteJSON(w, http.StatusCreated, v)
}

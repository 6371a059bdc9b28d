package service

import (
	"context"
	"errors"
	"log/slog"

	"payflow/internal/audit"
	"payflow/internal/payout/models"
	"payflow/internal/payout/store"
	"payflow/internal/platform/metrics"
	"payflow/internal/vendors"
	"payflow/pkg/domain"
	dErrors "payflow/pkg/domain-errors"
	"payflow/pkg/platform/sentinel"
	"payflow/pkg/requestcontext"
)

// VendorDirectory resolves a vendor reference at payout creation time.
// Transitions never consult it; a vendor going inactive does not strand
// in-flight payouts.
type VendorDirectory interface {
	Resolve(ctx context.Context, id domain.VendorID) (vendors.Ref, error)
}

// AuditStream receives committed audit entries for best-effort forwarding.
// It must never block or fail the calling operation.
type AuditStream interface {
	Publish(entry audit.Entry)
}

// Service orchestrates the payout lifecycle. It is the only entry point
// external callers use: it checks the caller's role, validates the state
// transition, and applies the status write and the audit append as one unit
// of work per payout.
//
// Ordering is deliberate and uniform: the role check runs before the payout
// is even loaded, so a Finance user submitting a Draft gets forbidden, not
// invalid-transition.
type Service struct {
	uow     UnitOfWork
	payouts store.Store
	ledger  audit.Store
	vendors VendorDirectory
	logger  *slog.Logger
	metrics *metrics.Metrics
	stream  AuditStream
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditStream(stream AuditStream) Option {
	return func(s *Service) { s.stream = stream }
}

// New constructs a Service.
func New(uow UnitOfWork, payouts store.Store, ledger audit.Store, vendors VendorDirectory, opts ...Option) *Service {
	s := &Service{
		uow:     uow,
		payouts: payouts,
		ledger:  ledger,
		vendors: vendors,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// transitionRoles is the authorization table of the lifecycle. Checked once
// here at the service boundary; handlers and stores never re-check roles.
var transitionRoles = map[domain.AuditAction]domain.Role{
	domain.ActionCreated:   domain.RoleOps,
	domain.ActionSubmitted: domain.RoleOps,
	domain.ActionApproved:  domain.RoleFinance,
	domain.ActionRejected:  domain.RoleFinance,
}

func (s *Service) authorize(principal domain.Principal, action domain.AuditAction) error {
	if principal.Role != transitionRoles[action] {
		return dErrors.New(dErrors.CodeForbidden, "role "+principal.Role.String()+" may not perform "+action.String())
	}
	return nil
}

// CreatePayout validates the request against the vendor directory and the
// aggregate invariants, persists a Draft payout and its Created audit entry.
func (s *Service) CreatePayout(ctx context.Context, principal domain.Principal, req models.CreatePayoutRequest) (*models.Payout, error) {
	if err := s.authorize(principal, domain.ActionCreated); err != nil {
		return nil, err
	}

	vendorID, err := domain.ParseVendorID(req.VendorID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "vendor id is not valid")
	}

	ref, err := s.vendors.Resolve(ctx, vendorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeValidation, "vendor does not exist")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve vendor")
	}
	if !ref.IsActive {
		return nil, dErrors.New(dErrors.CodeValidation, "vendor is inactive")
	}

	mode, err := domain.ParsePayoutMode(req.Mode)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "payout mode must be one of UPI, IMPS, NEFT")
	}

	now := requestcontext.Now(ctx)
	payout, err := models.NewPayout(vendorID, req.Amount, mode, req.Note, principal, now)
	if err != nil {
		// Convert invariant violations to validation errors for API response.
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}

	entry := audit.NewEntry(payout.ID, domain.ActionCreated, principal, "", domain.StatusDraft, now)
	err = s.uow.RunInTx(ctx, payout.ID.String(), func(ctx context.Context) error {
		if err := s.payouts.Create(ctx, payout); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create payout")
		}
		if err := s.ledger.Append(ctx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "audit ledger unavailable")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementPayoutsCreated()
	s.publish(entry)
	s.logger.InfoContext(ctx, "payout created",
		"request_id", requestcontext.RequestID(ctx),
		"payout_id", payout.ID.String(),
		"vendor_id", vendorID.String(),
		"amount", payout.Amount.String(),
		"created_by", principal.Email,
	)
	return payout, nil
}

// SubmitPayout moves a Draft payout to Submitted. OPS only.
func (s *Service) SubmitPayout(ctx context.Context, principal domain.Principal, id domain.PayoutID) (*models.Payout, error) {
	return s.transition(ctx, principal, id, domain.ActionSubmitted, "")
}

// ApprovePayout moves a Submitted payout to Approved. FINANCE only.
func (s *Service) ApprovePayout(ctx context.Context, principal domain.Principal, id domain.PayoutID) (*models.Payout, error) {
	return s.transition(ctx, principal, id, domain.ActionApproved, "")
}

// RejectPayout moves a Submitted payout to Rejected with a mandatory
// decision reason. FINANCE only.
func (s *Service) RejectPayout(ctx context.Context, principal domain.Principal, id domain.PayoutID, decisionReason string) (*models.Payout, error) {
	return s.transition(ctx, principal, id, domain.ActionRejected, decisionReason)
}

func (s *Service) transition(ctx context.Context, principal domain.Principal, id domain.PayoutID, action domain.AuditAction, decisionReason string) (*models.Payout, error) {
	// Role before state validity, always: the payout is not even loaded
	// until the caller is known to hold the right role.
	if err := s.authorize(principal, action); err != nil {
		s.metrics.ObserveTransition(action.String(), "failure")
		return nil, err
	}

	var (
		updated *models.Payout
		entry   audit.Entry
	)
	err := s.uow.RunInTx(ctx, id.String(), func(ctx context.Context) error {
		payout, err := s.payouts.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "payout not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load payout")
		}

		previous := payout.Status
		switch action {
		case domain.ActionSubmitted:
			if err := payout.CanSubmit(); err != nil {
				return err
			}
			payout.ApplySubmit()
		case domain.ActionApproved:
			if err := payout.CanApprove(); err != nil {
				return err
			}
			payout.ApplyApprove()
		case domain.ActionRejected:
			if err := payout.CanReject(decisionReason); err != nil {
				return err
			}
			payout.ApplyReject(decisionReason)
		default:
			return dErrors.New(dErrors.CodeInternal, "unknown transition action")
		}

		updated, err = s.payouts.ApplyTransition(ctx, id, previous, payout.Status, payout.DecisionReason)
		if err != nil {
			switch {
			case errors.Is(err, sentinel.ErrInvalidState):
				// A concurrent writer won the race after our read. The
				// loser fails; it never overwrites.
				return dErrors.New(dErrors.CodeInvalidTransition, "payout status changed concurrently, refetch and retry")
			case errors.Is(err, sentinel.ErrNotFound):
				return dErrors.New(dErrors.CodeNotFound, "payout not found")
			case errors.Is(err, sentinel.ErrConflict):
				return dErrors.New(dErrors.CodeConflict, "payout was modified concurrently")
			default:
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply transition")
			}
		}

		entry = audit.NewEntry(id, action, principal, previous, updated.Status, requestcontext.Now(ctx))
		if err := s.ledger.Append(ctx, entry); err != nil {
			// The unit of work rolls the status change back; a transition
			// without its audit entry must never become visible.
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "audit ledger unavailable")
		}
		return nil
	})
	if err != nil {
		s.metrics.ObserveTransition(action.String(), "failure")
		return nil, err
	}

	s.metrics.ObserveTransition(action.String(), "success")
	s.publish(entry)
	s.logger.InfoContext(ctx, "payout transition applied",
		"request_id", requestcontext.RequestID(ctx),
		"payout_id", id.String(),
		"action", action.String(),
		"status", updated.Status.String(),
		"performed_by", principal.Email,
	)
	return updated, nil
}

// GetPayoutWithTrail is the read-only composite fetch behind the detail view.
func (s *Service) GetPayoutWithTrail(ctx context.Context, id domain.PayoutID) (*models.PayoutWithTrail, error) {
	payout, err := s.payouts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "payout not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load payout")
	}
	trail, err := s.ledger.ListByPayout(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit trail")
	}
	if trail == nil {
		trail = []audit.Entry{}
	}
	return &models.PayoutWithTrail{Payout: payout, AuditTrail: trail}, nil
}

// ListPayouts returns payouts newest-first. Visibility is not
// role-restricted; both roles see all payouts, only mutation is gated.
func (s *Service) ListPayouts(ctx context.Context, filter store.Filter) ([]*models.Payout, error) {
	payouts, err := s.payouts.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list payouts")
	}
	return payouts, nil
}

func (s *Service) publish(entry audit.Entry) {
	if s.stream != nil {
		s.stream.Publish(entry)
	}
}

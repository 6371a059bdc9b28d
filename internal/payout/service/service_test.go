package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"payflow/internal/audit"
	"payflow/internal/payout/models"
	"payflow/internal/payout/store"
	"payflow/internal/vendors"
	"payflow/pkg/domain"
	dErrors "payflow/pkg/domain-errors"
	"payflow/pkg/requestcontext"
)

// capturingStream records published audit entries for assertions.
type capturingStream struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (c *capturingStream) Publish(entry audit.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
}

func (c *capturingStream) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

type PayoutServiceSuite struct {
	suite.Suite
	payouts *store.InMemory
	ledger  *audit.InMemoryStore
	vendors *vendors.InMemoryStore
	stream  *capturingStream
	service *Service
	ctx     context.Context

	ops     domain.Principal
	finance domain.Principal
	vendorA *vendors.Vendor
}

func TestPayoutServiceSuite(t *testing.T) {
	suite.Run(t, new(PayoutServiceSuite))
}

func (s *PayoutServiceSuite) SetupTest() {
	s.payouts = store.NewInMemory()
	s.ledger = audit.NewInMemoryStore()
	s.vendors = vendors.NewInMemoryStore()
	s.stream = &capturingStream{}
	s.ctx = requestcontext.WithTime(context.Background(), time.Now().UTC())

	directory := vendors.NewDirectory(s.vendors, nil, 0, slog.Default())
	s.service = New(NewMemoryUnitOfWork(), s.payouts, s.ledger, directory,
		WithAuditStream(s.stream),
	)

	s.ops = domain.Principal{ID: domain.NewUserID(), Email: "ops@payflow.dev", Role: domain.RoleOps}
	s.finance = domain.Principal{ID: domain.NewUserID(), Email: "finance@payflow.dev", Role: domain.RoleFinance}

	var err error
	s.vendorA, err = vendors.NewVendor("Acme Supplies", "acme@upi", "", "", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.vendors.Create(s.ctx, s.vendorA))
}

func (s *PayoutServiceSuite) createDraft() *models.Payout {
	payout, err := s.service.CreatePayout(s.ctx, s.ops, models.CreatePayoutRequest{
		VendorID: s.vendorA.ID.String(),
		Amount:   150000,
		Mode:     "UPI",
		Note:     "invoice 42",
	})
	s.Require().NoError(err)
	return payout
}

func (s *PayoutServiceSuite) createSubmitted() *models.Payout {
	draft := s.createDraft()
	submitted, err := s.service.SubmitPayout(s.ctx, s.ops, draft.ID)
	s.Require().NoError(err)
	return submitted
}

func (s *PayoutServiceSuite) trail(id domain.PayoutID) []audit.Entry {
	entries, err := s.ledger.ListByPayout(s.ctx, id)
	s.Require().NoError(err)
	return entries
}

// TestCreatePayout covers creation, vendor validation, and the Created
// audit entry.
func (s *PayoutServiceSuite) TestCreatePayout() {
	s.Run("creates a draft with a Created audit entry", func() {
		payout := s.createDraft()
		s.Equal(domain.StatusDraft, payout.Status)
		s.Equal(s.vendorA.ID, payout.VendorID)
		s.Equal(s.ops, payout.CreatedBy)

		entries := s.trail(payout.ID)
		s.Require().Len(entries, 1)
		s.Equal(domain.ActionCreated, entries[0].Action)
		s.Empty(entries[0].PreviousStatus)
		s.Equal(domain.StatusDraft, entries[0].NewStatus)
		s.Equal(s.ops, entries[0].PerformedBy)
	})

	s.Run("forbids FINANCE from creating", func() {
		_, err := s.service.CreatePayout(s.ctx, s.finance, models.CreatePayoutRequest{
			VendorID: s.vendorA.ID.String(), Amount: 100, Mode: "UPI",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("rejects a malformed vendor id", func() {
		_, err := s.service.CreatePayout(s.ctx, s.ops, models.CreatePayoutRequest{
			VendorID: "not-a-uuid", Amount: 100, Mode: "UPI",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects an unknown vendor", func() {
		_, err := s.service.CreatePayout(s.ctx, s.ops, models.CreatePayoutRequest{
			VendorID: domain.NewVendorID().String(), Amount: 100, Mode: "UPI",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "vendor does not exist")
	})

	s.Run("rejects an inactive vendor", func() {
		inactive, err := vendors.NewVendor("Closed Shop", "", "", "", time.Now().UTC())
		s.Require().NoError(err)
		inactive.IsActive = false
		s.Require().NoError(s.vendors.Create(s.ctx, inactive))

		_, err = s.service.CreatePayout(s.ctx, s.ops, models.CreatePayoutRequest{
			VendorID: inactive.ID.String(), Amount: 100, Mode: "UPI",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "vendor is inactive")
	})

	s.Run("rejects an unsupported mode", func() {
		_, err := s.service.CreatePayout(s.ctx, s.ops, models.CreatePayoutRequest{
			VendorID: s.vendorA.ID.String(), Amount: 100, Mode: "CASH",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects a non-positive amount", func() {
		_, err := s.service.CreatePayout(s.ctx, s.ops, models.CreatePayoutRequest{
			VendorID: s.vendorA.ID.String(), Amount: 0, Mode: "UPI",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// TestSubmitPayout covers the Draft -> Submitted transition and its gating.
func (s *PayoutServiceSuite) TestSubmitPayout() {
	s.Run("submits a draft and appends an audit entry", func() {
		draft := s.createDraft()
		submitted, err := s.service.SubmitPayout(s.ctx, s.ops, draft.ID)
		s.Require().NoError(err)
		s.Equal(domain.StatusSubmitted, submitted.Status)

		entries := s.trail(draft.ID)
		s.Require().Len(entries, 2)
		s.Equal(domain.ActionSubmitted, entries[1].Action)
		s.Equal(domain.StatusDraft, entries[1].PreviousStatus)
		s.Equal(domain.StatusSubmitted, entries[1].NewStatus)
	})

	s.Run("role is checked before state", func() {
		// A Finance user submitting a Draft must get forbidden, not an
		// invalid-transition hint about the payout's state.
		draft := s.createDraft()
		_, err := s.service.SubmitPayout(s.ctx, s.finance, draft.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		found, ferr := s.payouts.FindByID(s.ctx, draft.ID)
		s.Require().NoError(ferr)
		s.Equal(domain.StatusDraft, found.Status)
	})

	s.Run("rejects a double submit", func() {
		submitted := s.createSubmitted()
		_, err := s.service.SubmitPayout(s.ctx, s.ops, submitted.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
		s.Len(s.trail(submitted.ID), 2)
	})

	s.Run("returns not found for an unknown payout", func() {
		_, err := s.service.SubmitPayout(s.ctx, s.ops, domain.NewPayoutID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// TestApprovePayout covers the Submitted -> Approved transition.
func (s *PayoutServiceSuite) TestApprovePayout() {
	s.Run("approves a submitted payout", func() {
		submitted := s.createSubmitted()
		approved, err := s.service.ApprovePayout(s.ctx, s.finance, submitted.ID)
		s.Require().NoError(err)
		s.Equal(domain.StatusApproved, approved.Status)
		s.Empty(approved.DecisionReason)

		entries := s.trail(submitted.ID)
		s.Require().Len(entries, 3)
		s.Equal(domain.ActionApproved, entries[2].Action)
		s.Equal(domain.StatusSubmitted, entries[2].PreviousStatus)
		s.Equal(s.finance, entries[2].PerformedBy)
	})

	s.Run("forbids OPS from approving", func() {
		submitted := s.createSubmitted()
		_, err := s.service.ApprovePayout(s.ctx, s.ops, submitted.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("rejects approving a draft", func() {
		draft := s.createDraft()
		_, err := s.service.ApprovePayout(s.ctx, s.finance, draft.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("terminal payouts are immutable", func() {
		submitted := s.createSubmitted()
		_, err := s.service.ApprovePayout(s.ctx, s.finance, submitted.ID)
		s.Require().NoError(err)

		_, err = s.service.ApprovePayout(s.ctx, s.finance, submitted.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
		_, err = s.service.RejectPayout(s.ctx, s.finance, submitted.ID, "too late")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
		_, err = s.service.SubmitPayout(s.ctx, s.ops, submitted.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

		s.Len(s.trail(submitted.ID), 3)
	})
}

// TestRejectPayout covers the Submitted -> Rejected transition and the
// mandatory decision reason.
func (s *PayoutServiceSuite) TestRejectPayout() {
	s.Run("rejects with a reason", func() {
		submitted := s.createSubmitted()
		rejected, err := s.service.RejectPayout(s.ctx, s.finance, submitted.ID, "missing invoice")
		s.Require().NoError(err)
		s.Equal(domain.StatusRejected, rejected.Status)
		s.Equal("missing invoice", rejected.DecisionReason)

		entries := s.trail(submitted.ID)
		s.Require().Len(entries, 3)
		s.Equal(domain.ActionRejected, entries[2].Action)
	})

	s.Run("missing reason leaves the payout untouched", func() {
		submitted := s.createSubmitted()
		_, err := s.service.RejectPayout(s.ctx, s.finance, submitted.ID, "   ")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		found, ferr := s.payouts.FindByID(s.ctx, submitted.ID)
		s.Require().NoError(ferr)
		s.Equal(domain.StatusSubmitted, found.Status)
		s.Empty(found.DecisionReason)
		s.Len(s.trail(submitted.ID), 2)
	})

	s.Run("forbids OPS from rejecting", func() {
		submitted := s.createSubmitted()
		_, err := s.service.RejectPayout(s.ctx, s.ops, submitted.ID, "reason")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

// TestConcurrentDecision verifies that two racing deciders produce exactly
// one terminal status and exactly one decision audit entry.
func (s *PayoutServiceSuite) TestConcurrentDecision() {
	submitted := s.createSubmitted()

	var wg sync.WaitGroup
	var approveErr, rejectErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, approveErr = s.service.ApprovePayout(s.ctx, s.finance, submitted.ID)
	}()
	go func() {
		defer wg.Done()
		_, rejectErr = s.service.RejectPayout(s.ctx, s.finance, submitted.ID, "lost the race")
	}()
	wg.Wait()

	if approveErr == nil {
		s.Require().Error(rejectErr)
		s.True(dErrors.HasCode(rejectErr, dErrors.CodeInvalidTransition))
	} else {
		s.Require().NoError(rejectErr)
		s.True(dErrors.HasCode(approveErr, dErrors.CodeInvalidTransition))
	}

	found, err := s.payouts.FindByID(s.ctx, submitted.ID)
	s.Require().NoError(err)
	s.True(found.Status.IsTerminal())
	s.Len(s.trail(submitted.ID), 3)
}

// TestGetPayoutWithTrail covers the composite read.
func (s *PayoutServiceSuite) TestGetPayoutWithTrail() {
	s.Run("returns the payout and its full trail", func() {
		submitted := s.createSubmitted()
		_, err := s.service.ApprovePayout(s.ctx, s.finance, submitted.ID)
		s.Require().NoError(err)

		result, err := s.service.GetPayoutWithTrail(s.ctx, submitted.ID)
		s.Require().NoError(err)
		s.Equal(domain.StatusApproved, result.Payout.Status)
		s.Require().Len(result.AuditTrail, 3)
		s.Equal(domain.ActionCreated, result.AuditTrail[0].Action)
		s.Equal(domain.ActionSubmitted, result.AuditTrail[1].Action)
		s.Equal(domain.ActionApproved, result.AuditTrail[2].Action)
	})

	s.Run("returns not found for an unknown payout", func() {
		_, err := s.service.GetPayoutWithTrail(s.ctx, domain.NewPayoutID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// TestListPayouts covers filter delegation and ordering.
func (s *PayoutServiceSuite) TestListPayouts() {
	first := s.createDraft()
	second := s.createSubmitted()

	s.Run("lists newest first", func() {
		payouts, err := s.service.ListPayouts(s.ctx, store.Filter{})
		s.Require().NoError(err)
		s.Require().Len(payouts, 2)
		s.Equal(second.ID, payouts[0].ID)
		s.Equal(first.ID, payouts[1].ID)
	})

	s.Run("filters by status", func() {
		payouts, err := s.service.ListPayouts(s.ctx, store.Filter{Status: domain.StatusDraft})
		s.Require().NoError(err)
		s.Require().Len(payouts, 1)
		s.Equal(first.ID, payouts[0].ID)
	})
}

// TestAuditStream verifies entries reach the stream only for committed
// operations.
func (s *PayoutServiceSuite) TestAuditStream() {
	submitted := s.createSubmitted()
	s.Equal(2, s.stream.count())

	_, err := s.service.RejectPayout(s.ctx, s.finance, submitted.ID, "")
	s.Require().Error(err)
	s.Equal(2, s.stream.count())

	_, err = s.service.ApprovePayout(s.ctx, s.finance, submitted.ID)
	s.Require().NoError(err)
	s.Equal(3, s.stream.count())
}

//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"payflow/internal/audit"
	"payflow/internal/payout/models"
	"payflow/internal/payout/store"
	"payflow/internal/vendors"
	"payflow/pkg/domain"
	"payflow/pkg/platform/sentinel"
	"payflow/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	payouts  *store.Postgres
	ledger   *audit.PostgresStore
	vendors  *vendors.PostgresStore
	ctx      context.Context

	vendorA *vendors.Vendor
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.payouts = store.NewPostgres(s.postgres.DB)
	s.ledger = audit.NewPostgres(s.postgres.DB)
	s.vendors = vendors.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	// Truncate in dependency order.
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "audit_entries", "payouts", "vendors"))

	var err error
	s.vendorA, err = vendors.NewVendor("Acme Supplies", "acme@upi", "", "", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.vendors.Create(s.ctx, s.vendorA))
}

func (s *PostgresStoreSuite) newPayout(status domain.PayoutStatus) *models.Payout {
	p := &models.Payout{
		ID:       domain.NewPayoutID(),
		VendorID: s.vendorA.ID,
		Amount:   150000,
		Mode:     domain.ModeUPI,
		Note:     "invoice 42",
		Status:   status,
		CreatedBy: domain.Principal{
			ID:    domain.NewUserID(),
			Email: "ops@payflow.dev",
			Role:  domain.RoleOps,
		},
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.payouts.Create(s.ctx, p))
	return p
}

// TestRoundTrip verifies a payout survives the write/read cycle intact.
func (s *PostgresStoreSuite) TestRoundTrip() {
	created := s.newPayout(domain.StatusDraft)

	found, err := s.payouts.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, found.ID)
	s.Equal(created.VendorID, found.VendorID)
	s.Equal(domain.Amount(150000), found.Amount)
	s.Equal(domain.ModeUPI, found.Mode)
	s.Equal("invoice 42", found.Note)
	s.Equal(domain.StatusDraft, found.Status)
	s.Empty(found.DecisionReason)
	s.Equal(created.CreatedBy, found.CreatedBy)
}

func (s *PostgresStoreSuite) TestFindByID_NotFound() {
	_, err := s.payouts.FindByID(s.ctx, domain.NewPayoutID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestCreate_DuplicateID() {
	p := s.newPayout(domain.StatusDraft)
	s.Require().ErrorIs(s.payouts.Create(s.ctx, p), sentinel.ErrConflict)
}

// TestList verifies newest-first ordering and conjunctive filters.
func (s *PostgresStoreSuite) TestList() {
	first := s.newPayout(domain.StatusDraft)
	time.Sleep(5 * time.Millisecond)
	second := s.newPayout(domain.StatusSubmitted)

	all, err := s.payouts.List(s.ctx, store.Filter{})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(second.ID, all[0].ID)
	s.Equal(first.ID, all[1].ID)

	drafts, err := s.payouts.List(s.ctx, store.Filter{Status: domain.StatusDraft})
	s.Require().NoError(err)
	s.Require().Len(drafts, 1)
	s.Equal(first.ID, drafts[0].ID)
}

// TestApplyTransition verifies the conditional UPDATE compare-and-swap.
func (s *PostgresStoreSuite) TestApplyTransition() {
	s.Run("applies when the expected status matches", func() {
		p := s.newPayout(domain.StatusDraft)
		updated, err := s.payouts.ApplyTransition(s.ctx, p.ID, domain.StatusDraft, domain.StatusSubmitted, "")
		s.Require().NoError(err)
		s.Equal(domain.StatusSubmitted, updated.Status)
	})

	s.Run("fails with ErrInvalidState on a stale expectation", func() {
		p := s.newPayout(domain.StatusSubmitted)
		_, err := s.payouts.ApplyTransition(s.ctx, p.ID, domain.StatusDraft, domain.StatusSubmitted, "")
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("fails with ErrNotFound for an unknown payout", func() {
		_, err := s.payouts.ApplyTransition(s.ctx, domain.NewPayoutID(), domain.StatusDraft, domain.StatusSubmitted, "")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("persists the decision reason on rejection", func() {
		p := s.newPayout(domain.StatusSubmitted)
		updated, err := s.payouts.ApplyTransition(s.ctx, p.ID, domain.StatusSubmitted, domain.StatusRejected, "missing invoice")
		s.Require().NoError(err)
		s.Equal(domain.StatusRejected, updated.Status)
		s.Equal("missing invoice", updated.DecisionReason)
	})
}

// TestConcurrentTransitions verifies exactly one racing decider wins at the
// database level.
func (s *PostgresStoreSuite) TestConcurrentTransitions() {
	p := s.newPayout(domain.StatusSubmitted)

	const writers = 10
	results := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			target := domain.StatusApproved
			reason := ""
			if i%2 == 1 {
				target = domain.StatusRejected
				reason = "lost the race"
			}
			_, results[i] = s.payouts.ApplyTransition(s.ctx, p.ID, domain.StatusSubmitted, target, reason)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			s.Require().ErrorIs(err, sentinel.ErrInvalidState)
		}
	}
	s.Equal(1, wins)
}

// TestAuditLedger verifies seq-ordered read-back and the absent previous
// status on Created entries.
func (s *PostgresStoreSuite) TestAuditLedger() {
	p := s.newPayout(domain.StatusDraft)
	performer := domain.Principal{ID: domain.NewUserID(), Email: "ops@payflow.dev", Role: domain.RoleOps}
	now := time.Now().UTC().Truncate(time.Microsecond)

	created := audit.NewEntry(p.ID, domain.ActionCreated, performer, "", domain.StatusDraft, now)
	submitted := audit.NewEntry(p.ID, domain.ActionSubmitted, performer, domain.StatusDraft, domain.StatusSubmitted, now)

	s.Require().NoError(s.ledger.Append(s.ctx, created))
	s.Require().NoError(s.ledger.Append(s.ctx, submitted))

	entries, err := s.ledger.ListByPayout(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)

	s.Equal(domain.ActionCreated, entries[0].Action)
	s.Empty(entries[0].PreviousStatus)
	s.Equal(domain.StatusDraft, entries[0].NewStatus)

	s.Equal(domain.ActionSubmitted, entries[1].Action)
	s.Equal(domain.StatusDraft, entries[1].PreviousStatus)
	s.Equal(performer, entries[1].PerformedBy)
}

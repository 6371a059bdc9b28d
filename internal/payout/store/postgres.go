package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"payflow/internal/payout/models"
	"payflow/pkg/domain"
	"payflow/pkg/platform/sentinel"
	txcontext "payflow/pkg/platform/tx"
)

// Postgres persists payouts. ApplyTransition relies on a conditional UPDATE
// so the status compare-and-swap happens at the storage layer; the row
// version is the status itself, which is enough for a four-state graph where
// no transition re-enters a previous state.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const payoutColumns = `id, vendor_id, amount_minor, mode, COALESCE(note, ''), status,
	COALESCE(decision_reason, ''), created_by_id, created_by_email, created_by_role, created_at`

func (s *Postgres) Create(ctx context.Context, payout *models.Payout) error {
	query := `
		INSERT INTO payouts
			(id, vendor_id, amount_minor, mode, note, status, created_by_id, created_by_email, created_by_role, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(payout.ID),
		uuid.UUID(payout.VendorID),
		int64(payout.Amount),
		string(payout.Mode),
		payout.Note,
		string(payout.Status),
		uuid.UUID(payout.CreatedBy.ID),
		payout.CreatedBy.Email,
		string(payout.CreatedBy.Role),
		payout.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert payout: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.PayoutID) (*models.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE id = $1`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(id))
	payout, err := scanPayout(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find payout: %w", err)
	}
	return payout, nil
}

func (s *Postgres) List(ctx context.Context, filter Filter) ([]*models.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE 1=1`
	args := []any{}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !filter.VendorID.IsNil() {
		args = append(args, uuid.UUID(filter.VendorID))
		query += fmt.Sprintf(" AND vendor_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	defer rows.Close()

	var payouts []*models.Payout
	for rows.Next() {
		payout, err := scanPayout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payout: %w", err)
		}
		payouts = append(payouts, payout)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payouts: %w", err)
	}
	return payouts, nil
}

func (s *Postgres) ApplyTransition(ctx context.Context, id domain.PayoutID, expectedStatus, newStatus domain.PayoutStatus, decisionReason string) (*models.Payout, error) {
	query := `
		UPDATE payouts
		SET status = $3, decision_reason = NULLIF($4, '')
		WHERE id = $1 AND status = $2
		RETURNING ` + payoutColumns
	row := s.execer(ctx).QueryRowContext(ctx, query,
		uuid.UUID(id),
		string(expectedStatus),
		string(newStatus),
		decisionReason,
	)
	payout, err := scanPayout(row)
	if errors.Is(err, sql.ErrNoRows) {
		// Either the payout is gone or a concurrent writer changed the
		// status first. Distinguish so callers can report accurately.
		if _, findErr := s.FindByID(ctx, id); findErr != nil {
			return nil, findErr
		}
		return nil, sentinel.ErrInvalidState
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "serialization_failure" {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("apply transition: %w", err)
	}
	return payout, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayout(row rowScanner) (*models.Payout, error) {
	var (
		p                  models.Payout
		payoutUUID         uuid.UUID
		vendorUUID, byUUID uuid.UUID
		amountMinor        int64
		mode, status, role string
	)
	err := row.Scan(
		&payoutUUID, &vendorUUID, &amountMinor, &mode, &p.Note, &status,
		&p.DecisionReason, &byUUID, &p.CreatedBy.Email, &role, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.ID = domain.PayoutID(payoutUUID)
	p.VendorID = domain.VendorID(vendorUUID)
	p.Amount = domain.Amount(amountMinor)
	p.Mode = domain.PayoutMode(mode)
	p.Status = domain.PayoutStatus(status)
	p.CreatedBy.ID = domain.UserID(byUUID)
	p.CreatedBy.Role = domain.Role(role)
	return &p, nil
}

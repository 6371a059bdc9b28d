package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"payflow/pkg/domain"
	txcontext "payflow/pkg/platform/tx"
)

// PostgresStore persists audit entries. A bigserial seq column fixes the
// read-back order even when two entries share a timestamp.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// execer joins a service-scoped transaction when one is carried in ctx so
// the append commits atomically with the status write.
func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO audit_entries
			(id, payout_id, action, performed_by_id, performed_by_email, performed_by_role, previous_status, new_status, ts)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		entry.ID,
		uuid.UUID(entry.PayoutID),
		string(entry.Action),
		uuid.UUID(entry.PerformedBy.ID),
		entry.PerformedBy.Email,
		string(entry.PerformedBy.Role),
		string(entry.PreviousStatus),
		string(entry.NewStatus),
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByPayout(ctx context.Context, payoutID domain.PayoutID) ([]Entry, error) {
	query := `
		SELECT id, payout_id, action, performed_by_id, performed_by_email, performed_by_role,
		       COALESCE(previous_status, ''), new_status, ts
		FROM audit_entries
		WHERE payout_id = $1
		ORDER BY seq ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(payoutID))
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                  Entry
			payoutUUID, byUUID uuid.UUID
			action, role       string
			prev, next         string
		)
		if err := rows.Scan(&e.ID, &payoutUUID, &action, &byUUID, &e.PerformedBy.Email, &role, &prev, &next, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.PayoutID = domain.PayoutID(payoutUUID)
		e.Action = domain.AuditAction(action)
		e.PerformedBy.ID = domain.UserID(byUUID)
		e.PerformedBy.Role = domain.Role(role)
		e.PreviousStatus = domain.PayoutStatus(prev)
		e.NewStatus = domain.PayoutStatus(next)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

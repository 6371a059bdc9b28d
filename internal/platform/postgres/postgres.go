package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects and verifies the connection. Pool sizing is conservative;
// the workload is small writes behind per-payout serialization.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate applies the schema. Idempotent so restarts are safe; a real
// migration tool can take over once the schema starts moving.
func Migrate(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS vendors (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			upi_id TEXT,
			bank_account TEXT,
			ifsc TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS payouts (
			id UUID PRIMARY KEY,
			vendor_id UUID NOT NULL REFERENCES vendors (id),
			amount_minor BIGINT NOT NULL CHECK (amount_minor > 0),
			mode TEXT NOT NULL,
			note TEXT,
			status TEXT NOT NULL,
			decision_reason TEXT,
			created_by_id UUID NOT NULL,
			created_by_email TEXT NOT NULL,
			created_by_role TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			CHECK ((status = 'Rejected') = (decision_reason IS NOT NULL))
		)`,
		`CREATE INDEX IF NOT EXISTS payouts_status_idx ON payouts (status)`,
		`CREATE INDEX IF NOT EXISTS payouts_vendor_idx ON payouts (vendor_id)`,
		`CREATE INDEX IF NOT EXISTS payouts_created_at_idx ON payouts (created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS audit_entries (
			seq BIGSERIAL PRIMARY KEY,
			id UUID NOT NULL UNIQUE,
			payout_id UUID NOT NULL REFERENCES payouts (id),
			action TEXT NOT NULL,
			performed_by_id UUID NOT NULL,
			performed_by_email TEXT NOT NULL,
			performed_by_role TEXT NOT NULL,
			previous_status TEXT,
			new_status TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS audit_entries_payout_idx ON audit_entries (payout_id, seq)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

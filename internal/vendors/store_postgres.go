package vendors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"payflow/pkg/domain"
	"payflow/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, v *Vendor) error {
	query := `
		INSERT INTO vendors (id, name, upi_id, bank_account, ifsc, is_active, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(v.ID), v.Name, v.UPIID, v.BankAccount, v.IFSC, v.IsActive, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert vendor: %w", err)
	}
	return nil
}

const vendorColumns = `id, name, COALESCE(upi_id, ''), COALESCE(bank_account, ''), COALESCE(ifsc, ''), is_active, created_at`

func (s *PostgresStore) FindByID(ctx context.Context, id domain.VendorID) (*Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE id = $1`
	v, err := scanVendor(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find vendor: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors ORDER BY created_at ASC, id ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	var vendors []*Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vendors: %w", err)
	}
	return vendors, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVendor(row rowScanner) (*Vendor, error) {
	var (
		v          Vendor
		vendorUUID uuid.UUID
	)
	err := row.Scan(&vendorUUID, &v.Name, &v.UPIID, &v.BankAccount, &v.IFSC, &v.IsActive, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	v.ID = domain.VendorID(vendorUUID)
	return &v, nil
}

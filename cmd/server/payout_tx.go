package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "payflow/pkg/domain-errors"
	txcontext "payflow/pkg/platform/tx"
)

const defaultPayoutTxTimeout = 5 * time.Second

// payoutPostgresTx implements the payout service's UnitOfWork over a SQL
// transaction. The payout and audit stores pick the transaction up from
// context, so a status write and its audit append commit or roll back
// together. Row-level locking on the conditional UPDATE serializes racing
// writers; no key-based locking is needed here, the key is accepted for
// interface parity with the in-memory implementation.
type payoutPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newPayoutPostgresTx(db *sql.DB) *payoutPostgresTx {
	return &payoutPostgresTx{db: db}
}

func (t *payoutPostgresTx) RunInTx(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultPayoutTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to commit transaction")
	}
	return nil
}

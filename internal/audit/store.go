package audit

import (
	"context"

	"payflow/pkg/domain"
)

// Store is the append-only ledger. Append must never rewrite history; the
// only failure mode is storage unavailability, which callers surface as an
// infrastructure error and treat as aborting the whole operation.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByPayout(ctx context.Context, payoutID domain.PayoutID) ([]Entry, error)
}

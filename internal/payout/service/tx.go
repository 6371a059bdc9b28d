package service

import (
	"context"
	"sync"
	"time"

	dErrors "payflow/pkg/domain-errors"
)

// UnitOfWork provides the transactional boundary for a payout mutation: the
// state check, the status write and the audit append run inside fn as one
// logical transaction keyed by payout id. Implementations may wrap a
// database transaction or, in-memory, a per-key lock.
type UnitOfWork interface {
	RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// shardedTx serializes units of work with sharded mutexes. Instead of a
// single global lock, operations are distributed across N shards based on a
// hash of the payout id, so operations on different payouts proceed in
// parallel while two writers on the same payout are serialized.
const numShards = 128

// defaultTxTimeout bounds a unit of work so no operation blocks indefinitely.
const defaultTxTimeout = 5 * time.Second

type shardedTx struct {
	shards  [numShards]sync.Mutex
	timeout time.Duration
}

// NewMemoryUnitOfWork returns the in-memory UnitOfWork used with the memory
// stores. The memory ledger's append cannot fail, so holding the shard lock
// across both writes is all the atomicity the contract needs.
func NewMemoryUnitOfWork() UnitOfWork {
	return &shardedTx{}
}

func (t *shardedTx) RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := hashKey(key) % numShards
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	// Check again after acquiring the lock.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}

// hashKey uses FNV-1a for even shard distribution.
func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}

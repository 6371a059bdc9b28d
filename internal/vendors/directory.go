package vendors

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"payflow/pkg/domain"
)

// Directory is the read adapter payout creation consults: vendor id in,
// name and active flag out. A Redis read-through cache sits in front of the
// store because vendor records change rarely and payout creation reads them
// on every request.
type Directory struct {
	store    Store
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewDirectory builds a Directory. cache may be nil, in which case every
// Resolve hits the store.
func NewDirectory(store Store, cache *redis.Client, cacheTTL time.Duration, logger *slog.Logger) *Directory {
	return &Directory{store: store, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

func cacheKey(id domain.VendorID) string {
	return "vendor:" + id.String()
}

// Resolve returns the vendor projection. Cache failures degrade to store
// reads; they are logged, never surfaced.
func (d *Directory) Resolve(ctx context.Context, id domain.VendorID) (Ref, error) {
	if d.cache != nil {
		raw, err := d.cache.Get(ctx, cacheKey(id)).Result()
		if err == nil {
			var ref Ref
			if err := json.Unmarshal([]byte(raw), &ref); err == nil {
				return ref, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			d.logger.Warn("vendor cache read failed", "vendor_id", id.String(), "error", err)
		}
	}

	v, err := d.store.FindByID(ctx, id)
	if err != nil {
		return Ref{}, err
	}
	ref := Ref{ID: v.ID, Name: v.Name, IsActive: v.IsActive}

	if d.cache != nil {
		if raw, err := json.Marshal(ref); err == nil {
			if err := d.cache.Set(ctx, cacheKey(id), raw, d.cacheTTL).Err(); err != nil {
				d.logger.Warn("vendor cache write failed", "vendor_id", id.String(), "error", err)
			}
		}
	}
	return ref, nil
}

// Invalidate drops a cached projection, called on vendor writes.
func (d *Directory) Invalidate(ctx context.Context, id domain.VendorID) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Del(ctx, cacheKey(id)).Err(); err != nil {
		d.logger.Warn("vendor cache invalidate failed", "vendor_id", id.String(), "error", err)
	}
}

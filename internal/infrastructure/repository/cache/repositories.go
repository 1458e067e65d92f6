package cache

import (
	"context"
	"time"

	"github.com/riskibarqy/evidence-portal/internal/domain/inventory"
	basecache "github.com/riskibarqy/evidence-portal/internal/platform/cache"
)

type cachedValuation struct {
	value  inventory.Valuation
	exists bool
}

// InventoryValuationRepository keeps recent lookups in memory in front of the
// durable store. Writes go through and refresh the cached entry.
type InventoryValuationRepository struct {
	next  inventory.Repository
	cache *basecache.Store[cachedValuation]
}

func NewInventoryValuationRepository(next inventory.Repository, ttl time.Duration, opts ...basecache.Option[cachedValuation]) *InventoryValuationRepository {
	return &InventoryValuationRepository{next: next, cache: basecache.NewStore[cachedValuation](ttl, opts...)}
}

func (r *InventoryValuationRepository) GetBySteamID(ctx context.Context, steamID64 string) (inventory.Valuation, bool, error) {
	key := valuationKey(steamID64)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (cachedValuation, error) {
		item, exists, err := r.next.GetBySteamID(ctx, steamID64)
		if err != nil {
			return cachedValuation{}, err
		}
		return cachedValuation{value: item.Clone(), exists: exists}, nil
	})
	if err != nil {
		return inventory.Valuation{}, false, err
	}
	return v.value.Clone(), v.exists, nil
}

func (r *InventoryValuationRepository) Upsert(ctx context.Context, valuation inventory.Valuation) error {
	key := valuationKey(valuation.SteamID64)
	if err := r.next.Upsert(ctx, valuation); err != nil {
		r.cache.Delete(ctx, key)
		return err
	}
	r.cache.Set(ctx, key, cachedValuation{value: valuation.Clone(), exists: true})
	return nil
}

func valuationKey(steamID64 string) string {
	return "inventory:valuation:" + steamID64
}

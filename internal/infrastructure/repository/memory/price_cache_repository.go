package memory

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/evidence-portal/internal/domain/pricing"
)

type PriceCacheRepository struct {
	mu    sync.RWMutex
	items map[string]pricing.Entry
}

func NewPriceCacheRepository() *PriceCacheRepository {
	return &PriceCacheRepository{items: make(map[string]pricing.Entry)}
}

func (r *PriceCacheRepository) ListFresh(_ context.Context, names []string, since time.Time) ([]pricing.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pricing.Entry, 0, len(names))
	for _, name := range names {
		entry, ok := r.items[name]
		if !ok || entry.UpdatedAt.Before(since) {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (r *PriceCacheRepository) Upsert(_ context.Context, entries []pricing.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range entries {
		r.items[entry.MarketHashName] = entry
	}
	return nil
}

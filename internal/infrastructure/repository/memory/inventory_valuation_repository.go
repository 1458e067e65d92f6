package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/evidence-portal/internal/domain/inventory"
)

type InventoryValuationRepository struct {
	mu    sync.RWMutex
	items map[string]inventory.Valuation
}

func NewInventoryValuationRepository() *InventoryValuationRepository {
	return &InventoryValuationRepository{items: make(map[string]inventory.Valuation)}
}

func (r *InventoryValuationRepository) GetBySteamID(_ context.Context, steamID64 string) (inventory.Valuation, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.items[steamID64]
	if !ok {
		return inventory.Valuation{}, false, nil
	}
	return v.Clone(), true, nil
}

func (r *InventoryValuationRepository) Upsert(_ context.Context, valuation inventory.Valuation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[valuation.SteamID64] = valuation.Clone()
	return nil
}

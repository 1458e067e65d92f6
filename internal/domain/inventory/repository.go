package inventory

import "context"

// Repository persists the latest valuation per player.
type Repository interface {
	GetBySteamID(ctx context.Context, steamID64 string) (Valuation, bool, error)
	Upsert(ctx context.Context, valuation Valuation) error
}

package pricing

import (
	"context"
	"time"
)

// Repository is the durable price cache keyed by market hash name.
type Repository interface {
	// ListFresh returns entries for names updated at or after since.
	ListFresh(ctx context.Context, names []string, since time.Time) ([]Entry, error)
	// Upsert writes entries, last write wins.
	Upsert(ctx context.Context, entries []Entry) error
}

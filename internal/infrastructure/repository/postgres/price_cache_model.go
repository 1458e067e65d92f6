package postgres

import "time"

type priceCacheTableModel struct {
	MarketHashName string    `db:"market_hash_name"`
	PriceCents     int64     `db:"price_cents"`
	UpdatedAt      time.Time `db:"updated_at"`
}

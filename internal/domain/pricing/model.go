package pricing

import "time"

// Entry is a cached market price for one item name.
type Entry struct {
	MarketHashName string
	PriceCents     int64
	UpdatedAt      time.Time
}

// Source names where a price came from.
type Source string

const (
	SourceDurable  Source = "durable"
	SourceBulk     Source = "bulk"
	SourceFallback Source = "fallback"
)

package inventory

import "time"

// IconBaseURL prefixes the icon hash returned by the inventory source.
const IconBaseURL = "https://community.cloudflare.steamstatic.com/economy/image/"

// TopItemsLimit bounds the highlighted items on a valuation.
const TopItemsLimit = 3

// Item is one distinct marketable item of an inventory with its owned count.
type Item struct {
	MarketHashName string
	Marketable     bool
	IconURL        string
	Count          int
}

type PricedItem struct {
	Item
	PriceCents int64
}

type TopItem struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	IconURL    string `json:"icon_url"`
}

// Valuation is the cached net worth of one player's inventory. A nil
// ValueCents means the value is unknown.
type Valuation struct {
	SteamID64  string    `json:"steamid64"`
	ValueCents *int64    `json:"value_cents"`
	Currency   *string   `json:"currency"`
	Error      *string   `json:"error"`
	TopItems   []TopItem `json:"top_items"`
	ItemCount  int       `json:"item_count"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FreshAt reports whether v is younger than ttl at now.
func (v Valuation) FreshAt(now time.Time, ttl time.Duration) bool {
	if v.UpdatedAt.IsZero() || ttl <= 0 {
		return false
	}
	return now.Sub(v.UpdatedAt) < ttl
}

// Clone returns a deep copy safe to hand to another goroutine.
func (v Valuation) Clone() Valuation {
	out := v
	if v.ValueCents != nil {
		value := *v.ValueCents
		out.ValueCents = &value
	}
	if v.Currency != nil {
		currency := *v.Currency
		out.Currency = &currency
	}
	if v.Error != nil {
		msg := *v.Error
		out.Error = &msg
	}
	out.TopItems = append(make([]TopItem, 0, len(v.TopItems)), v.TopItems...)
	return out
}

package usecase

import (
	"context"
	"io"
)

// InventoryAsset is one owned asset on an inventory page.
type InventoryAsset struct {
	AssetID    string
	ClassID    string
	InstanceID string
	Amount     int
}

// InventoryDescription describes a class/instance pair referenced by assets.
type InventoryDescription struct {
	ClassID        string
	InstanceID     string
	MarketHashName string
	Name           string
	Marketable     bool
	IconURL        string
}

type InventoryPage struct {
	Assets              []InventoryAsset
	Descriptions        []InventoryDescription
	MoreItems           bool
	LastAssetID         string
	TotalInventoryCount int
}

// InventorySource serves one cursor page of a public inventory. Non-success
// responses map to ErrInventoryPrivate, ErrSourceRateLimited,
// ErrSourceBadRequest or *SourceStatusError.
type InventorySource interface {
	FetchInventoryPage(ctx context.Context, steamID64 string, count int, startAssetID string) (InventoryPage, error)
}

// PriceOverview is the per-item market quote with localized price strings.
type PriceOverview struct {
	Success     bool
	LowestPrice string
	MedianPrice string
}

// ItemPriceSource is the strictly rate limited per-item quote source. A rate
// limit maps to ErrSourceRateLimited.
type ItemPriceSource interface {
	FetchPriceOverview(ctx context.Context, marketHashName string) (PriceOverview, error)
}

// BulkPriceFeed returns dollar prices for every item it knows.
type BulkPriceFeed interface {
	FetchBulkPrices(ctx context.Context) (map[string]float64, error)
}

// ObjectStorage streams uploaded recordings.
type ObjectStorage interface {
	Download(ctx context.Context, objectKey string, dst io.Writer) (int64, error)
}

type PlayerBan struct {
	SteamID          string `json:"steamId"`
	CommunityBanned  bool   `json:"communityBanned"`
	VACBanned        bool   `json:"vacBanned"`
	NumberOfVACBans  int    `json:"numberOfVacBans"`
	DaysSinceLastBan int    `json:"daysSinceLastBan"`
	NumberOfGameBans int    `json:"numberOfGameBans"`
	EconomyBan       string `json:"economyBan"`
}

// SteamProfileSource is the Steam Web API subset used for profile lookups.
type SteamProfileSource interface {
	ResolveVanityURL(ctx context.Context, vanity string) (steamID64 string, found bool, err error)
	GetPlayerBans(ctx context.Context, steamIDs []string) ([]PlayerBan, error)
}

// TaskRunner executes fire-and-forget work, typically an ants pool.
type TaskRunner interface {
	Submit(task func()) error
}

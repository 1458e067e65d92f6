package steam

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/riskibarqy/evidence-portal/internal/usecase"
)

// CS2 app id and the tradable item context.
const (
	appIDCS2         = 730
	contextTradable  = 2
	defaultPageCount = 75
)

// FetchInventoryPage returns one cursor page of a public CS2 inventory.
func (c *Client) FetchInventoryPage(ctx context.Context, steamID64 string, count int, startAssetID string) (usecase.InventoryPage, error) {
	steamID64 = strings.TrimSpace(steamID64)
	if steamID64 == "" {
		return usecase.InventoryPage{}, fmt.Errorf("%w: steamid64 is required", usecase.ErrInvalidInput)
	}
	if count <= 0 {
		count = defaultPageCount
	}

	values := url.Values{}
	values.Set("l", "english")
	values.Set("count", strconv.Itoa(count))
	if startAssetID != "" {
		values.Set("start_assetid", startAssetID)
	}
	fullURL := fmt.Sprintf("%s/inventory/%s/%d/%d?%s", c.communityBaseURL, url.PathEscape(steamID64), appIDCS2, contextTradable, values.Encode())

	var payload inventoryEnvelope
	if err := c.getJSON(ctx, c.inventory, fullURL, "application/json", &payload); err != nil {
		return usecase.InventoryPage{}, mapInventoryError(err)
	}

	page := usecase.InventoryPage{
		Assets:              make([]usecase.InventoryAsset, 0, len(payload.Assets)),
		Descriptions:        make([]usecase.InventoryDescription, 0, len(payload.Descriptions)),
		MoreItems:           bool(payload.MoreItems),
		LastAssetID:         strings.TrimSpace(string(payload.LastAssetID)),
		TotalInventoryCount: int(payload.TotalInventoryCount),
	}
	for _, a := range payload.Assets {
		amount, _ := strconv.Atoi(string(a.Amount))
		page.Assets = append(page.Assets, usecase.InventoryAsset{
			AssetID:    string(a.AssetID),
			ClassID:    string(a.ClassID),
			InstanceID: string(a.InstanceID),
			Amount:     max(amount, 1),
		})
	}
	for _, d := range payload.Descriptions {
		page.Descriptions = append(page.Descriptions, usecase.InventoryDescription{
			ClassID:        string(d.ClassID),
			InstanceID:     string(d.InstanceID),
			MarketHashName: d.MarketHashName,
			Name:           d.Name,
			Marketable:     bool(d.Marketable),
			IconURL:        d.IconURL,
		})
	}
	return page, nil
}

func mapInventoryError(err error) error {
	switch code := statusCode(err); code {
	case 0:
		if stderrors.Is(err, usecase.ErrDependencyUnavailable) {
			return err
		}
		return fmt.Errorf("fetch inventory page: %w", err)
	case http.StatusForbidden, http.StatusUnauthorized:
		return usecase.ErrInventoryPrivate
	case http.StatusTooManyRequests:
		return usecase.ErrSourceRateLimited
	case http.StatusBadRequest:
		return usecase.ErrSourceBadRequest
	default:
		return &usecase.SourceStatusError{StatusCode: code}
	}
}

type inventoryEnvelope struct {
	Assets              []inventoryAsset       `json:"assets"`
	Descriptions        []inventoryDescription `json:"descriptions"`
	MoreItems           flexBool               `json:"more_items"`
	LastAssetID         flexString             `json:"last_assetid"`
	TotalInventoryCount flexInt                `json:"total_inventory_count"`
}

type inventoryAsset struct {
	AssetID    flexString `json:"assetid"`
	ClassID    flexString `json:"classid"`
	InstanceID flexString `json:"instanceid"`
	Amount     flexString `json:"amount"`
}

type inventoryDescription struct {
	ClassID        flexString `json:"classid"`
	InstanceID     flexString `json:"instanceid"`
	MarketHashName string     `json:"market_hash_name"`
	Name           string     `json:"name"`
	Marketable     flexBool   `json:"marketable"`
	IconURL        string     `json:"icon_url"`
}

// flexBool accepts true/false, 0/1 and their quoted forms.
type flexBool bool

func (b *flexBool) UnmarshalJSON(raw []byte) error {
	switch string(bytes.Trim(bytes.TrimSpace(raw), `"`)) {
	case "true", "1":
		*b = true
	default:
		*b = false
	}
	return nil
}

// flexString accepts strings and bare numbers.
type flexString string

func (s *flexString) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if string(raw) == "null" {
		*s = ""
		return nil
	}
	*s = flexString(bytes.Trim(raw, `"`))
	return nil
}

type flexInt int64

func (n *flexInt) UnmarshalJSON(raw []byte) error {
	text := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if text == "" || text == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return fmt.Errorf("parse int %q: %w", text, err)
	}
	*n = flexInt(v)
	return nil
}

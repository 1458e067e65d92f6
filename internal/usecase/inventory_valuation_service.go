package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/evidence-portal/internal/domain/inventory"
	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
	"golang.org/x/text/currency"
)

type InventoryValuationConfig struct {
	PageSize          int
	MaxPages          int
	InterPageDelay    time.Duration
	BadRequestBackoff time.Duration
	ValuationTTL      time.Duration
}

func DefaultInventoryValuationConfig() InventoryValuationConfig {
	return InventoryValuationConfig{
		PageSize:          75,
		MaxPages:          100,
		InterPageDelay:    200 * time.Millisecond,
		BadRequestBackoff: 2 * time.Second,
		ValuationTTL:      24 * time.Hour,
	}
}

// ItemPricer resolves unit prices in cents by market hash name.
type ItemPricer interface {
	PriceItems(ctx context.Context, names []string) map[string]int64
}

type InventoryValuationService struct {
	repo   inventory.Repository
	source InventorySource
	pricer ItemPricer
	cfg    InventoryValuationConfig
	now    func() time.Time
	logger *logging.Logger
}

func NewInventoryValuationService(
	repo inventory.Repository,
	source InventorySource,
	pricer ItemPricer,
	cfg InventoryValuationConfig,
	logger *logging.Logger,
) *InventoryValuationService {
	defaults := DefaultInventoryValuationConfig()
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaults.PageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaults.MaxPages
	}
	if cfg.InterPageDelay < 0 {
		cfg.InterPageDelay = 0
	}
	if cfg.BadRequestBackoff < 0 {
		cfg.BadRequestBackoff = 0
	}
	if cfg.ValuationTTL <= 0 {
		cfg.ValuationTTL = defaults.ValuationTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &InventoryValuationService{
		repo:   repo,
		source: source,
		pricer: pricer,
		cfg:    cfg,
		now:    time.Now,
		logger: logger.Named("inventory_valuation"),
	}
}

// Valuate returns the inventory net worth of a player. A cached valuation
// younger than the TTL is returned as is unless forceRefresh is set. Source
// failures are reported in the valuation Error field, not as an error.
func (s *InventoryValuationService) Valuate(ctx context.Context, steamID64 string, forceRefresh bool) (inventory.Valuation, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.InventoryValuationService.Valuate")
	defer span.End()

	steamID64, err := normalizeSteamID64(steamID64)
	if err != nil {
		return inventory.Valuation{}, err
	}

	if !forceRefresh {
		cached, ok, err := s.repo.GetBySteamID(ctx, steamID64)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "valuation cache read failed, recomputing", "steamid64", steamID64, "error", err)
		case ok && cached.FreshAt(s.now(), s.cfg.ValuationTTL):
			return cached, nil
		}
	}

	items, fetchErr := s.fetchInventory(ctx, steamID64)
	valuation := s.value(ctx, steamID64, items, fetchErr)
	valuation.UpdatedAt = s.now().UTC()

	if err := s.repo.Upsert(context.WithoutCancel(ctx), valuation); err != nil {
		s.logger.WarnContext(ctx, "persist valuation failed", "steamid64", steamID64, "error", err)
	}
	return valuation, nil
}

func (s *InventoryValuationService) value(ctx context.Context, steamID64 string, items []inventory.Item, fetchErr error) inventory.Valuation {
	out := inventory.Valuation{
		SteamID64: steamID64,
		TopItems:  []inventory.TopItem{},
	}
	if fetchErr != nil {
		msg := valuationErrorMessage(fetchErr)
		out.Error = &msg
		if len(items) == 0 {
			return out
		}
		s.logger.WarnContext(ctx, "valuing partial inventory", "steamid64", steamID64, "items", len(items), "error", fetchErr)
	}

	usd := currency.USD.String()
	out.Currency = &usd
	total := int64(0)
	out.ValueCents = &total
	if len(items) == 0 {
		return out
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.MarketHashName)
		out.ItemCount += item.Count
	}
	prices := s.pricer.PriceItems(ctx, names)

	priced := make([]inventory.PricedItem, 0, len(prices))
	for _, item := range items {
		cents, ok := prices[item.MarketHashName]
		if !ok {
			continue
		}
		total += cents * int64(item.Count)
		priced = append(priced, inventory.PricedItem{Item: item, PriceCents: cents})
	}
	*out.ValueCents = total

	sort.SliceStable(priced, func(i, j int) bool {
		if priced[i].PriceCents != priced[j].PriceCents {
			return priced[i].PriceCents > priced[j].PriceCents
		}
		return priced[i].MarketHashName < priced[j].MarketHashName
	})
	for _, p := range priced[:min(len(priced), inventory.TopItemsLimit)] {
		out.TopItems = append(out.TopItems, inventory.TopItem{
			Name:       p.MarketHashName,
			PriceCents: p.PriceCents,
			IconURL:    inventory.IconBaseURL + p.IconURL,
		})
	}
	return out
}

// fetchInventory walks the cursor pages in order. Items collected before a
// failure are returned with the error.
func (s *InventoryValuationService) fetchInventory(ctx context.Context, steamID64 string) ([]inventory.Item, error) {
	descriptions := make(map[string]InventoryDescription)
	index := make(map[string]int)
	var items []inventory.Item

	cursor := ""
	pages := 0
	complete := false
	for !complete && pages < s.cfg.MaxPages {
		if pages > 0 {
			if err := sleepContext(ctx, s.cfg.InterPageDelay); err != nil {
				return items, err
			}
		}
		page, err := s.fetchPage(ctx, steamID64, cursor)
		pages++
		if err != nil {
			return items, err
		}
		if len(page.Assets) == 0 {
			complete = true
			break
		}

		for _, d := range page.Descriptions {
			key := classKey(d.ClassID, d.InstanceID)
			if _, ok := descriptions[key]; !ok {
				descriptions[key] = d
			}
		}
		for _, asset := range page.Assets {
			d, ok := descriptions[classKey(asset.ClassID, asset.InstanceID)]
			if !ok || !d.Marketable {
				continue
			}
			name := d.MarketHashName
			if name == "" {
				name = d.Name
			}
			if name == "" {
				continue
			}
			amount := max(asset.Amount, 1)
			if i, seen := index[name]; seen {
				items[i].Count += amount
				continue
			}
			index[name] = len(items)
			items = append(items, inventory.Item{MarketHashName: name, Marketable: true, IconURL: d.IconURL, Count: amount})
		}

		if !page.MoreItems || page.LastAssetID == "" {
			complete = true
			break
		}
		cursor = page.LastAssetID
	}
	if !complete {
		s.logger.WarnContext(ctx, "inventory page ceiling reached", "steamid64", steamID64, "pages", pages)
	}

	s.logger.InfoContext(ctx, "inventory fetched", "steamid64", steamID64, "pages", pages, "distinct_items", len(items))
	return items, nil
}

// fetchPage retries a bad request exactly once after the backoff.
func (s *InventoryValuationService) fetchPage(ctx context.Context, steamID64, cursor string) (InventoryPage, error) {
	page, err := s.source.FetchInventoryPage(ctx, steamID64, s.cfg.PageSize, cursor)
	if !errors.Is(err, ErrSourceBadRequest) {
		return page, err
	}

	s.logger.WarnContext(ctx, "inventory page bad request, retrying once", "steamid64", steamID64, "cursor", cursor)
	if err := sleepContext(ctx, s.cfg.BadRequestBackoff); err != nil {
		return InventoryPage{}, err
	}
	page, err = s.source.FetchInventoryPage(ctx, steamID64, s.cfg.PageSize, cursor)
	if errors.Is(err, ErrSourceBadRequest) {
		return InventoryPage{}, fmt.Errorf("retry inventory page: %w", &SourceStatusError{StatusCode: 400})
	}
	return page, err
}

func classKey(classID, instanceID string) string {
	return classID + "_" + instanceID
}

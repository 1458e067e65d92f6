package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/riskibarqy/evidence-portal/internal/domain/pricing"
	"github.com/riskibarqy/evidence-portal/internal/platform/cache"
	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
	"github.com/samber/lo"
)

const bulkSnapshotKey = "bulk-price-feed"

type PriceCacheConfig struct {
	TTL             time.Duration
	UpsertChunkSize int
}

func DefaultPriceCacheConfig() PriceCacheConfig {
	return PriceCacheConfig{
		TTL:             24 * time.Hour,
		UpsertChunkSize: 100,
	}
}

// PriceCache layers the durable price table over an in-process snapshot of
// the bulk price feed. Store failures read as misses.
type PriceCache struct {
	repo     pricing.Repository
	feed     BulkPriceFeed
	snapshot *cache.Store[map[string]int64]
	cfg      PriceCacheConfig
	now      func() time.Time
	logger   *logging.Logger
}

func NewPriceCache(
	repo pricing.Repository,
	feed BulkPriceFeed,
	snapshot *cache.Store[map[string]int64],
	cfg PriceCacheConfig,
	logger *logging.Logger,
) *PriceCache {
	defaults := DefaultPriceCacheConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = defaults.TTL
	}
	if cfg.UpsertChunkSize <= 0 {
		cfg.UpsertChunkSize = defaults.UpsertChunkSize
	}
	if snapshot == nil {
		snapshot = cache.NewStore[map[string]int64](30 * time.Minute)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PriceCache{
		repo:     repo,
		feed:     feed,
		snapshot: snapshot,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger.Named("price_cache"),
	}
}

// BatchLookup returns durable prices younger than the cache TTL.
func (c *PriceCache) BatchLookup(ctx context.Context, names []string) map[string]int64 {
	ctx, span := startUsecaseSpan(ctx, "usecase.PriceCache.BatchLookup")
	defer span.End()

	out := make(map[string]int64)
	names = uniqueNames(names)
	if len(names) == 0 || c.repo == nil {
		return out
	}

	entries, err := c.repo.ListFresh(ctx, names, c.now().Add(-c.cfg.TTL))
	if err != nil {
		c.logger.WarnContext(ctx, "durable price lookup failed, treating as miss", "names", len(names), "error", err)
		return out
	}
	for _, e := range entries {
		if e.PriceCents > 0 {
			out[e.MarketHashName] = e.PriceCents
		}
	}
	return out
}

// BatchUpsert writes entries in chunks. Every chunk is attempted; failures
// are joined.
func (c *PriceCache) BatchUpsert(ctx context.Context, entries []pricing.Entry) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PriceCache.BatchUpsert")
	defer span.End()

	if len(entries) == 0 || c.repo == nil {
		return nil
	}

	now := c.now().UTC()
	entries = lo.UniqBy(entries, func(e pricing.Entry) string { return e.MarketHashName })
	for i := range entries {
		if entries[i].UpdatedAt.IsZero() {
			entries[i].UpdatedAt = now
		}
	}

	var errs []error
	for i, chunk := range lo.Chunk(entries, c.cfg.UpsertChunkSize) {
		if err := c.repo.Upsert(ctx, chunk); err != nil {
			errs = append(errs, fmt.Errorf("upsert price chunk %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// BulkSnapshot returns the feed snapshot, loading it at most once per
// snapshot TTL. The returned map is shared and must not be modified.
func (c *PriceCache) BulkSnapshot(ctx context.Context) map[string]int64 {
	ctx, span := startUsecaseSpan(ctx, "usecase.PriceCache.BulkSnapshot")
	defer span.End()

	if c.feed == nil {
		return map[string]int64{}
	}
	snapshot, err := c.snapshot.GetOrLoad(ctx, bulkSnapshotKey, c.loadSnapshot)
	if err != nil {
		c.logger.WarnContext(ctx, "bulk price feed unavailable", "error", err)
		return map[string]int64{}
	}
	return snapshot
}

// RefreshBulkSnapshot replaces the snapshot with a fresh feed download.
func (c *PriceCache) RefreshBulkSnapshot(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PriceCache.RefreshBulkSnapshot")
	defer span.End()

	if c.feed == nil {
		return 0, nil
	}
	snapshot, err := c.loadSnapshot(ctx)
	if err != nil {
		return 0, err
	}
	c.snapshot.Set(ctx, bulkSnapshotKey, snapshot)
	return len(snapshot), nil
}

func (c *PriceCache) loadSnapshot(ctx context.Context) (map[string]int64, error) {
	prices, err := c.feed.FetchBulkPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch bulk prices: %v", ErrDependencyUnavailable, err)
	}

	out := make(map[string]int64, len(prices))
	for name, dollars := range prices {
		if name == "" || math.IsNaN(dollars) || math.IsInf(dollars, 0) {
			continue
		}
		if cents := int64(math.Round(dollars * 100)); cents > 0 {
			out[name] = cents
		}
	}
	c.logger.InfoContext(ctx, "bulk price snapshot loaded", "items", len(out))
	return out, nil
}

func uniqueNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return lo.Uniq(out)
}

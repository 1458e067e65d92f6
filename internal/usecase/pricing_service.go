package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/riskibarqy/evidence-portal/internal/domain/pricing"
	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
)

type PricingConfig struct {
	FallbackMaxRequests    int
	InterPriceRequestDelay time.Duration
	WriteBackTimeout       time.Duration
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		FallbackMaxRequests:    15,
		InterPriceRequestDelay: 3 * time.Second,
		WriteBackTimeout:       30 * time.Second,
	}
}

// PricingService resolves unit prices from the durable cache, then the bulk
// snapshot, then the rate limited per-item source.
type PricingService struct {
	cache    *PriceCache
	fallback ItemPriceSource
	runner   TaskRunner
	cfg      PricingConfig
	logger   *logging.Logger
}

func NewPricingService(
	priceCache *PriceCache,
	fallback ItemPriceSource,
	runner TaskRunner,
	cfg PricingConfig,
	logger *logging.Logger,
) *PricingService {
	if cfg.FallbackMaxRequests < 0 {
		cfg.FallbackMaxRequests = 0
	}
	if cfg.InterPriceRequestDelay < 0 {
		cfg.InterPriceRequestDelay = 0
	}
	if cfg.WriteBackTimeout <= 0 {
		cfg.WriteBackTimeout = DefaultPricingConfig().WriteBackTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PricingService{
		cache:    priceCache,
		fallback: fallback,
		runner:   runner,
		cfg:      cfg,
		logger:   logger.Named("pricing"),
	}
}

// PriceItems returns unit prices in cents for the names it could resolve.
// Prices found outside the durable cache are written back asynchronously.
func (s *PricingService) PriceItems(ctx context.Context, names []string) map[string]int64 {
	ctx, span := startUsecaseSpan(ctx, "usecase.PricingService.PriceItems")
	defer span.End()

	names = uniqueNames(names)
	prices := s.cache.BatchLookup(ctx, names)
	counts := map[pricing.Source]int{pricing.SourceDurable: len(prices)}
	var resolved []pricing.Entry

	pending := unpriced(names, prices)
	if len(pending) > 0 {
		snapshot := s.cache.BulkSnapshot(ctx)
		for _, name := range pending {
			if cents, ok := snapshot[name]; ok {
				prices[name] = cents
				resolved = append(resolved, pricing.Entry{MarketHashName: name, PriceCents: cents})
				counts[pricing.SourceBulk]++
			}
		}
	}

	pending = unpriced(names, prices)
	if len(pending) > 0 && s.fallback != nil {
		for _, entry := range s.fetchFallback(ctx, pending) {
			prices[entry.MarketHashName] = entry.PriceCents
			resolved = append(resolved, entry)
			counts[pricing.SourceFallback]++
		}
	}

	s.writeBack(ctx, resolved)

	s.logger.InfoContext(ctx, "items priced",
		"requested", len(names),
		"durable", counts[pricing.SourceDurable],
		"bulk", counts[pricing.SourceBulk],
		"fallback", counts[pricing.SourceFallback],
		"unpriced", len(names)-len(prices),
	)
	return prices
}

func (s *PricingService) fetchFallback(ctx context.Context, names []string) []pricing.Entry {
	var out []pricing.Entry
	for i, name := range names {
		if i >= s.cfg.FallbackMaxRequests {
			s.logger.InfoContext(ctx, "per-item price cap reached", "cap", s.cfg.FallbackMaxRequests, "skipped", len(names)-i)
			break
		}
		if i > 0 {
			if err := sleepContext(ctx, s.cfg.InterPriceRequestDelay); err != nil {
				break
			}
		}

		quote, err := s.fallback.FetchPriceOverview(ctx, name)
		if err != nil {
			if errors.Is(err, ErrSourceRateLimited) {
				s.logger.WarnContext(ctx, "per-item price source rate limited, stopping", "item", name)
				break
			}
			if errors.Is(err, ErrDependencyUnavailable) {
				s.logger.WarnContext(ctx, "per-item price source unavailable, stopping", "item", name, "error", err)
				break
			}
			if ctx.Err() != nil {
				break
			}
			s.logger.DebugContext(ctx, "per-item price lookup failed", "item", name, "error", err)
			continue
		}
		if cents, ok := quoteCents(quote); ok {
			out = append(out, pricing.Entry{MarketHashName: name, PriceCents: cents})
		}
	}
	return out
}

func (s *PricingService) writeBack(ctx context.Context, entries []pricing.Entry) {
	if len(entries) == 0 {
		return
	}

	task := func() {
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteBackTimeout)
		defer cancel()
		if err := s.cache.BatchUpsert(bg, entries); err != nil {
			s.logger.WarnContext(bg, "price write-back failed", "entries", len(entries), "error", err)
		}
	}

	if s.runner == nil {
		go task()
		return
	}
	if err := s.runner.Submit(task); err != nil {
		s.logger.WarnContext(ctx, "price write-back dropped", "entries", len(entries), "error", err)
	}
}

func quoteCents(q PriceOverview) (int64, bool) {
	if !q.Success {
		return 0, false
	}
	raw := q.LowestPrice
	if raw == "" {
		raw = q.MedianPrice
	}
	cents, ok := ParsePriceCents(raw)
	if !ok || cents <= 0 {
		return 0, false
	}
	return cents, true
}

func unpriced(names []string, prices map[string]int64) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := prices[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

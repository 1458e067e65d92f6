package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/evidence-portal/external/pricefeed"
	"github.com/riskibarqy/evidence-portal/external/steam"
	"github.com/riskibarqy/evidence-portal/internal/config"
	"github.com/riskibarqy/evidence-portal/internal/domain/inventory"
	"github.com/riskibarqy/evidence-portal/internal/domain/pricing"
	"github.com/riskibarqy/evidence-portal/internal/domain/submission"
	"github.com/riskibarqy/evidence-portal/internal/infrastructure/demofile"
	"github.com/riskibarqy/evidence-portal/internal/infrastructure/objectstore"
	cacherepo "github.com/riskibarqy/evidence-portal/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/evidence-portal/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/evidence-portal/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/evidence-portal/internal/interfaces/httpapi"
	"github.com/riskibarqy/evidence-portal/internal/platform/cache"
	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
	"github.com/riskibarqy/evidence-portal/internal/platform/resilience"
	"github.com/riskibarqy/evidence-portal/internal/usecase"
)

type repositories struct {
	prices      pricing.Repository
	valuations  inventory.Repository
	submissions submission.Repository
}

// NewHTTPServer wires every dependency of the API. The returned cleanup
// releases pools, the scheduler and the database.
func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*http.Server, func(), error) {
	if cfg.HTTPAddr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	repos, closeRepos, err := newRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanups = append(cleanups, closeRepos)

	steamClient := steam.NewClient(steam.ClientConfig{
		CommunityBaseURL: cfg.Steam.CommunityBaseURL,
		APIBaseURL:       cfg.Steam.APIBaseURL,
		APIKey:           cfg.Steam.WebAPIKey,
		UserAgent:        cfg.Steam.UserAgent,
		Timeout:          cfg.Steam.Timeout,
		MaxRetries:       cfg.Steam.MaxRetries,
		Logger:           logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.Steam.CircuitEnabled,
			FailureThreshold: cfg.Steam.CircuitFailureCount,
			OpenTimeout:      cfg.Steam.CircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.Steam.CircuitHalfOpenMaxReq,
		},
	})

	var feed usecase.BulkPriceFeed
	if cfg.PriceFeedURL != "" {
		feed = pricefeed.NewClient(pricefeed.ClientConfig{
			URL:        cfg.PriceFeedURL,
			Timeout:    cfg.PriceFeedTimeout,
			MaxRetries: 1,
			Logger:     logger,
		})
	} else {
		logger.Info("bulk price feed disabled", "reason", "PRICE_FEED_URL empty")
	}

	priceCache := usecase.NewPriceCache(
		repos.prices,
		feed,
		cache.NewStore[map[string]int64](cfg.Pricing.BulkSnapshotTTL),
		usecase.PriceCacheConfig{
			TTL:             cfg.Pricing.CacheTTL,
			UpsertChunkSize: cfg.Pricing.UpsertChunkSize,
		},
		logger,
	)

	writeBackPool, err := ants.NewPool(cfg.Pricing.WriteBackWorkers, ants.WithNonblocking(true))
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("create write-back pool: %w", err)
	}
	cleanups = append(cleanups, writeBackPool.Release)

	pricingSvc := usecase.NewPricingService(
		priceCache,
		steamClient,
		writeBackPool,
		usecase.PricingConfig{
			FallbackMaxRequests:    cfg.Pricing.FallbackMaxRequests,
			InterPriceRequestDelay: cfg.Pricing.InterRequestDelay,
		},
		logger,
	)
	valuationSvc := usecase.NewInventoryValuationService(
		repos.valuations,
		steamClient,
		pricingSvc,
		usecase.InventoryValuationConfig{
			PageSize:          cfg.Inventory.PageSize,
			MaxPages:          cfg.Inventory.MaxPages,
			InterPageDelay:    cfg.Inventory.InterPageDelay,
			BadRequestBackoff: cfg.Inventory.BadRequestBackoff,
			ValuationTTL:      cfg.Inventory.ValuationTTL,
		},
		logger,
	)

	var storage usecase.ObjectStorage
	r2Cfg := objectstore.R2Config{
		AccountID:       cfg.R2.AccountID,
		AccessKeyID:     cfg.R2.AccessKeyID,
		SecretAccessKey: cfg.R2.SecretAccessKey,
		Bucket:          cfg.R2.Bucket,
		Endpoint:        cfg.R2.Endpoint,
		Logger:          logger,
	}
	if r2Cfg.Configured() {
		store, err := objectstore.NewR2Store(ctx, r2Cfg)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("create r2 store: %w", err)
		}
		storage = store
	} else {
		logger.Info("object storage disabled", "reason", "R2_BUCKET or R2_ACCOUNT_ID empty")
	}

	extractor := usecase.NewMatchExtractionService(demofile.NewReader(cfg.Demo.DecodeCacheTTL, logger), logger)
	evidenceSvc := usecase.NewEvidenceService(
		repos.submissions,
		storage,
		extractor,
		valuationSvc,
		usecase.EvidenceConfig{
			MaxDemoBytes: cfg.Demo.MaxBytes,
			ParseTimeout: cfg.Demo.ParseTimeout,
			TempDir:      cfg.Demo.TempDir,
		},
		logger,
	)
	profileSvc := usecase.NewSteamProfileService(steamClient, logger)
	resyncSvc := usecase.NewValuationResyncService(valuationSvc, logger)

	if feed != nil {
		stopJobs, err := startPriceJobs(priceCache, cfg.Pricing.BulkSnapshotTTL, logger)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, stopJobs)
	}

	handler := httpapi.NewHandler(
		evidenceSvc,
		valuationSvc,
		profileSvc,
		resyncSvc,
		httpapi.HandlerConfig{MaxUploadBytes: base64Len(cfg.Demo.MaxBytes) + 4096},
		logger,
	)
	router := httpapi.NewRouter(handler, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.WorkerToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server, cleanup, nil
}

func newRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, func(), error) {
	var repos repositories
	closeFn := func() {}

	if cfg.DBEnabled {
		db, err := openDatabase(ctx, cfg.DBURL)
		if err != nil {
			return repositories{}, nil, err
		}
		closeFn = func() {
			if err := db.Close(); err != nil {
				logger.Warn("close database failed", "error", err)
			}
		}
		repos = repositories{
			prices:      postgres.NewPriceCacheRepository(db),
			valuations:  postgres.NewInventoryValuationRepository(db),
			submissions: postgres.NewSubmissionRepository(db),
		}
		logger.Info("using postgres repositories", "db", dbNameFromURL(cfg.DBURL))
	} else {
		repos = repositories{
			prices:      memory.NewPriceCacheRepository(),
			valuations:  memory.NewInventoryValuationRepository(),
			submissions: memory.NewSubmissionRepository(nil),
		}
		logger.Info("using in-memory repositories", "reason", "DB_ENABLED=false")
	}

	if cfg.Inventory.LookupCacheTTL > 0 {
		repos.valuations = cacherepo.NewInventoryValuationRepository(repos.valuations, cfg.Inventory.LookupCacheTTL)
	}

	return repos, closeFn, nil
}

// base64Len is the encoded size of n raw bytes.
func base64Len(n int64) int64 {
	return (n + 2) / 3 * 4
}

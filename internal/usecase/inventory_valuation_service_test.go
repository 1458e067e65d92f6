package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/evidence-portal/internal/domain/inventory"
	"github.com/riskibarqy/evidence-portal/internal/domain/pricing"
	"github.com/riskibarqy/evidence-portal/internal/platform/cache"
	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
	pricingmock "github.com/riskibarqy/evidence-portal/internal/mocks/domain/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const suspectSteamID = "76561198012345678"

type pageResponse struct {
	page InventoryPage
	err  error
}

type fakeInventorySource struct {
	mu        sync.Mutex
	responses []pageResponse
	cursors   []string
}

func (f *fakeInventorySource) FetchInventoryPage(_ context.Context, _ string, count int, startAssetID string) (InventoryPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if count != 75 {
		return InventoryPage{}, fmt.Errorf("unexpected page size %d", count)
	}
	f.cursors = append(f.cursors, startAssetID)
	if len(f.responses) == 0 {
		return InventoryPage{}, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp.page, resp.err
}

func (f *fakeInventorySource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cursors)
}

type fakeItemPriceSource struct {
	mu     sync.Mutex
	quotes map[string]PriceOverview
	errs   map[string]error
	asked  []string
}

func (f *fakeItemPriceSource) FetchPriceOverview(_ context.Context, name string) (PriceOverview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = append(f.asked, name)
	if err := f.errs[name]; err != nil {
		return PriceOverview{}, err
	}
	return f.quotes[name], nil
}

type fakeBulkFeed struct {
	prices map[string]float64
	err    error
	calls  int
}

func (f *fakeBulkFeed) FetchBulkPrices(context.Context) (map[string]float64, error) {
	f.calls++
	return f.prices, f.err
}

type stubValuationRepo struct {
	mu    sync.Mutex
	byID  map[string]inventory.Valuation
	saves int
}

func newStubValuationRepo() *stubValuationRepo {
	return &stubValuationRepo{byID: make(map[string]inventory.Valuation)}
}

func (r *stubValuationRepo) GetBySteamID(_ context.Context, steamID64 string) (inventory.Valuation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.byID[steamID64]
	return v.Clone(), ok, nil
}

func (r *stubValuationRepo) Upsert(_ context.Context, v inventory.Valuation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[v.SteamID64] = v.Clone()
	r.saves++
	return nil
}

type syncRunner struct{}

func (syncRunner) Submit(task func()) error {
	task()
	return nil
}

func testPricingConfig() PricingConfig {
	return PricingConfig{FallbackMaxRequests: 15}
}

func testValuationConfig() InventoryValuationConfig {
	return InventoryValuationConfig{PageSize: 75, MaxPages: 100}
}

func newTestPricing(repo pricing.Repository, feed BulkPriceFeed, fallback ItemPriceSource, cfg PricingConfig) *PricingService {
	pc := NewPriceCache(repo, feed, cache.NewStore[map[string]int64](30*time.Minute), PriceCacheConfig{}, logging.NewNop())
	return NewPricingService(pc, fallback, syncRunner{}, cfg, logging.NewNop())
}

func assetsPage(more bool, last string, items ...[2]string) InventoryPage {
	page := InventoryPage{MoreItems: more, LastAssetID: last}
	for i, item := range items {
		classID := fmt.Sprintf("c%d", i)
		page.Descriptions = append(page.Descriptions, InventoryDescription{
			ClassID:        classID,
			InstanceID:     "0",
			MarketHashName: item[0],
			Marketable:     item[1] != "untradable",
			IconURL:        "icon-" + classID,
		})
		page.Assets = append(page.Assets, InventoryAsset{AssetID: fmt.Sprintf("%s-%d", last, i), ClassID: classID, InstanceID: "0", Amount: 1})
	}
	return page
}

func TestInventoryValuationService_Valuate_PricesFromDurableCache(t *testing.T) {
	t.Parallel()

	page := assetsPage(false, "", [2]string{"AK-47 | Redline (Field-Tested)"}, [2]string{"AWP | Asiimov (Battle-Scarred)"})
	page.Assets = append(page.Assets, page.Assets...)
	source := &fakeInventorySource{responses: []pageResponse{{page: page}}}
	fallback := &fakeItemPriceSource{}

	priceRepo := pricingmock.NewRepository(t)
	priceRepo.
		On("ListFresh", mock.Anything, mock.MatchedBy(func(names []string) bool { return len(names) == 2 }), mock.Anything).
		Return([]pricing.Entry{
			{MarketHashName: "AK-47 | Redline (Field-Tested)", PriceCents: 500},
			{MarketHashName: "AWP | Asiimov (Battle-Scarred)", PriceCents: 1500},
		}, nil).
		Once()

	svc := NewInventoryValuationService(newStubValuationRepo(), source,
		newTestPricing(priceRepo, nil, fallback, testPricingConfig()), testValuationConfig(), logging.NewNop())

	got, err := svc.Valuate(context.Background(), suspectSteamID, false)
	require.NoError(t, err)
	require.NotNil(t, got.ValueCents)
	assert.Equal(t, int64(4000), *got.ValueCents)
	require.NotNil(t, got.Currency)
	assert.Equal(t, "USD", *got.Currency)
	assert.Nil(t, got.Error)
	assert.Equal(t, 4, got.ItemCount)
	require.Len(t, got.TopItems, 2)
	assert.Equal(t, int64(1500), got.TopItems[0].PriceCents)
	assert.Equal(t, int64(500), got.TopItems[1].PriceCents)
	assert.Equal(t, inventory.IconBaseURL+"icon-c1", got.TopItems[0].IconURL)
	assert.Empty(t, fallback.asked)
}

func TestInventoryValuationService_Valuate_CountsStackedAmounts(t *testing.T) {
	t.Parallel()

	page := assetsPage(false, "", [2]string{"Sticker | Crown (Foil)"}, [2]string{"Operation Breakout Weapon Case"})
	page.Assets[1].Amount = 3
	source := &fakeInventorySource{responses: []pageResponse{{page: page}}}

	priceRepo := pricingmock.NewRepository(t)
	priceRepo.On("ListFresh", mock.Anything, mock.Anything, mock.Anything).
		Return([]pricing.Entry{
			{MarketHashName: "Sticker | Crown (Foil)", PriceCents: 20000},
			{MarketHashName: "Operation Breakout Weapon Case", PriceCents: 250},
		}, nil).
		Once()

	svc := NewInventoryValuationService(newStubValuationRepo(), source,
		newTestPricing(priceRepo, nil, &fakeItemPriceSource{}, testPricingConfig()), testValuationConfig(), logging.NewNop())

	got, err := svc.Valuate(context.Background(), suspectSteamID, false)
	require.NoError(t, err)
	assert.Equal(t, 4, got.ItemCount)
	require.NotNil(t, got.ValueCents)
	assert.Equal(t, int64(20750), *got.ValueCents)
}

func TestInventoryValuationService_Valuate_PrivateInventory(t *testing.T) {
	t.Parallel()

	repo := newStubValuationRepo()
	source := &fakeInventorySource{responses: []pageResponse{{err: fmt.Errorf("fetch page: %w", ErrInventoryPrivate)}}}
	svc := NewInventoryValuationService(repo, source, newTestPricing(nil, nil, nil, testPricingConfig()), testValuationConfig(), logging.NewNop())

	got, err := svc.Valuate(context.Background(), suspectSteamID, false)
	require.NoError(t, err)
	assert.Nil(t, got.ValueCents)
	assert.Nil(t, got.Currency)
	require.NotNil(t, got.Error)
	assert.Equal(t, "Inventory is private", *got.Error)
	assert.NotNil(t, got.TopItems)
	assert.Empty(t, got.TopItems)
	assert.Equal(t, 1, repo.saves)
}

func TestInventoryValuationService_Valuate_CachedWithinTTL(t *testing.T) {
	t.Parallel()

	repo := newStubValuationRepo()
	source := &fakeInventorySource{responses: []pageResponse{{page: assetsPage(false, "", [2]string{"Glock-18 | Fade (Factory New)"})}}}
	fallback := &fakeItemPriceSource{quotes: map[string]PriceOverview{
		"Glock-18 | Fade (Factory New)": {Success: true, LowestPrice: "$1,234.56"},
	}}

	priceRepo := pricingmock.NewRepository(t)
	priceRepo.On("ListFresh", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil).Once()
	priceRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(entries []pricing.Entry) bool {
		return len(entries) == 1 && entries[0].PriceCents == 123456
	})).Return(nil).Once()

	svc := NewInventoryValuationService(repo, source, newTestPricing(priceRepo, nil, fallback, testPricingConfig()), testValuationConfig(), logging.NewNop())
	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	first, err := svc.Valuate(context.Background(), suspectSteamID, false)
	require.NoError(t, err)
	callsAfterFirst := source.calls()
	askedAfterFirst := len(fallback.asked)

	now = now.Add(time.Hour)
	second, err := svc.Valuate(context.Background(), suspectSteamID, false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, callsAfterFirst, source.calls())
	assert.Equal(t, askedAfterFirst, len(fallback.asked))
	assert.Equal(t, int64(123456), *second.ValueCents)
}

func TestInventoryValuationService_Valuate_SinglePageWhenNoMoreItems(t *testing.T) {
	t.Parallel()

	names := make([][2]string, 0, 75)
	for i := 0; i < 75; i++ {
		names = append(names, [2]string{fmt.Sprintf("Sticker | Item %02d", i), "untradable"})
	}
	source := &fakeInventorySource{responses: []pageResponse{
		{page: assetsPage(false, "999", names...)},
		{page: assetsPage(false, "", [2]string{"should not be fetched"})},
	}}
	svc := NewInventoryValuationService(newStubValuationRepo(), source, newTestPricing(nil, nil, nil, testPricingConfig()), testValuationConfig(), logging.NewNop())

	got, err := svc.Valuate(context.Background(), suspectSteamID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls())
	require.NotNil(t, got.ValueCents)
	assert.Equal(t, int64(0), *got.ValueCents)
	assert.Equal(t, 0, got.ItemCount)
}

func TestInventoryValuationService_Valuate_FollowsCursorAndKeepsPartialOnFailure(t *testing.T) {
	t.Parallel()

	source := &fakeInventorySource{responses: []pageResponse{
		{page: assetsPage(true, "100", [2]string{"P250 | Sand Dune (Field-Tested)"})},
		{err: ErrSourceRateLimited},
	}}
	priceRepo := pricingmock.NewRepository(t)
	priceRepo.On("ListFresh", mock.Anything, mock.Anything, mock.Anything).
		Return([]pricing.Entry{{MarketHashName: "P250 | Sand Dune (Field-Tested)", PriceCents: 3}}, nil).Once()

	svc := NewInventoryValuationService(newStubValuationRepo(), source, newTestPricing(priceRepo, nil, nil, testPricingConfig()), testValuationConfig(), logging.NewNop())

	got, err := svc.Valuate(context.Background(), suspectSteamID, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "100"}, source.cursors)
	require.NotNil(t, got.ValueCents)
	assert.Equal(t, int64(3), *got.ValueCents)
	require.NotNil(t, got.Error)
	assert.Equal(t, "Rate limited by Steam", *got.Error)
}

func TestInventoryValuationService_Valuate_RetriesBadRequestOnce(t *testing.T) {
	t.Parallel()

	source := &fakeInventorySource{responses: []pageResponse{
		{err: ErrSourceBadRequest},
		{page: assetsPage(false, "")},
	}}
	svc := NewInventoryValuationService(newStubValuationRepo(), source, newTestPricing(nil, nil, nil, testPricingConfig()), testValuationConfig(), logging.NewNop())

	got, err := svc.Valuate(context.Background(), suspectSteamID, true)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls())
	assert.Nil(t, got.Error)

	source = &fakeInventorySource{responses: []pageResponse{{err: ErrSourceBadRequest}, {err: ErrSourceBadRequest}}}
	svc = NewInventoryValuationService(newStubValuationRepo(), source, newTestPricing(nil, nil, nil, testPricingConfig()), testValuationConfig(), logging.NewNop())

	got, err = svc.Valuate(context.Background(), suspectSteamID, true)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls())
	require.NotNil(t, got.Error)
	assert.Equal(t, "Steam API error: 400", *got.Error)
	assert.Nil(t, got.ValueCents)
}

func TestInventoryValuationService_Valuate_InvalidSteamID(t *testing.T) {
	t.Parallel()

	svc := NewInventoryValuationService(newStubValuationRepo(), &fakeInventorySource{}, newTestPricing(nil, nil, nil, testPricingConfig()), testValuationConfig(), logging.NewNop())

	_, err := svc.Valuate(context.Background(), "not-a-steam-id", false)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got=%v", err)
	}
}

func TestInventoryValuationService_Valuate_StopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	source := &fakeInventorySource{responses: []pageResponse{
		{page: assetsPage(true, "7", [2]string{"MP9 | Hot Rod (Factory New)"})},
	}}
	cfg := testValuationConfig()
	cfg.InterPageDelay = time.Hour
	svc := NewInventoryValuationService(newStubValuationRepo(), source, newTestPricing(nil, &fakeBulkFeed{prices: map[string]float64{"MP9 | Hot Rod (Factory New)": 2.5}}, nil, testPricingConfig()), cfg, logging.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	got, err := svc.Valuate(ctx, suspectSteamID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls())
	require.NotNil(t, got.Error)
	assert.Contains(t, *got.Error, "context deadline exceeded")
	require.NotNil(t, got.ValueCents)
	assert.Equal(t, int64(250), *got.ValueCents)
}

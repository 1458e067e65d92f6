package steam

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
	"github.com/riskibarqy/evidence-portal/internal/platform/resilience"
	"github.com/riskibarqy/evidence-portal/internal/usecase"
)

const testSteamID = "76561198012345678"

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		HTTPClient:       server.Client(),
		CommunityBaseURL: server.URL,
		APIBaseURL:       server.URL,
		APIKey:           "secret-key",
		Logger:           logging.NewNop(),
		CircuitBreaker:   resilience.CircuitBreakerConfig{Enabled: false},
	})
	return client, &calls
}

func TestClient_FetchInventoryPage(t *testing.T) {
	t.Parallel()

	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inventory/"+testSteamID+"/730/2" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("count") != "75" || q.Get("l") != "english" || q.Get("start_assetid") != "123" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if r.Header.Get("User-Agent") != defaultUserAgent {
			t.Errorf("unexpected user agent: %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte(`{
			"assets":[{"assetid":"9","classid":"310776","instanceid":"302028390","amount":"1"}],
			"descriptions":[{"classid":"310776","instanceid":"302028390","market_hash_name":"AK-47 | Redline (Field-Tested)","name":"AK-47 | Redline","marketable":1,"icon_url":"abc"}],
			"more_items":1,
			"last_assetid":"9",
			"total_inventory_count":76,
			"success":1
		}`))
	})

	page, err := client.FetchInventoryPage(context.Background(), testSteamID, 75, "123")
	if err != nil {
		t.Fatalf("FetchInventoryPage error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got=%d", calls.Load())
	}
	if !page.MoreItems || page.LastAssetID != "9" || page.TotalInventoryCount != 76 {
		t.Fatalf("unexpected page cursor fields: %+v", page)
	}
	if len(page.Assets) != 1 || page.Assets[0].ClassID != "310776" || page.Assets[0].Amount != 1 {
		t.Fatalf("unexpected assets: %+v", page.Assets)
	}
	if len(page.Descriptions) != 1 || !page.Descriptions[0].Marketable || page.Descriptions[0].IconURL != "abc" {
		t.Fatalf("unexpected descriptions: %+v", page.Descriptions)
	}
}

func TestClient_FetchInventoryPage_StatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		check  func(error) bool
	}{
		{status: http.StatusForbidden, check: func(err error) bool { return errors.Is(err, usecase.ErrInventoryPrivate) }},
		{status: http.StatusTooManyRequests, check: func(err error) bool { return errors.Is(err, usecase.ErrSourceRateLimited) }},
		{status: http.StatusBadRequest, check: func(err error) bool { return errors.Is(err, usecase.ErrSourceBadRequest) }},
		{status: http.StatusNotFound, check: func(err error) bool {
			var se *usecase.SourceStatusError
			return errors.As(err, &se) && se.StatusCode == http.StatusNotFound && se.Error() == "Steam API error: 404"
		}},
	}
	for _, tc := range cases {
		client, calls := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte("null"))
		})
		_, err := client.FetchInventoryPage(context.Background(), testSteamID, 75, "")
		if !tc.check(err) {
			t.Fatalf("status %d mapped to unexpected error: %v", tc.status, err)
		}
		if calls.Load() != 1 {
			t.Fatalf("status %d should not be retried, calls=%d", tc.status, calls.Load())
		}
	}
}

func TestClient_FetchPriceOverview(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/market/priceoverview/" || q.Get("appid") != "730" || q.Get("currency") != "1" {
			t.Errorf("unexpected request: %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		if q.Get("market_hash_name") != "StatTrak™ AK-47 | Vulcan (Minimal Wear)" {
			t.Errorf("unexpected item: %q", q.Get("market_hash_name"))
		}
		_, _ = w.Write([]byte(`{"success":true,"lowest_price":"$1,234.56","volume":"12","median_price":"$1,200.00"}`))
	})

	quote, err := client.FetchPriceOverview(context.Background(), "StatTrak™ AK-47 | Vulcan (Minimal Wear)")
	if err != nil {
		t.Fatalf("FetchPriceOverview error: %v", err)
	}
	if !quote.Success || quote.LowestPrice != "$1,234.56" || quote.MedianPrice != "$1,200.00" {
		t.Fatalf("unexpected quote: %+v", quote)
	}
}

func TestClient_FetchPriceOverview_RateLimited(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.FetchPriceOverview(context.Background(), "AWP | Dragon Lore (Factory New)")
	if !errors.Is(err, usecase.ErrSourceRateLimited) {
		t.Fatalf("expected ErrSourceRateLimited, got=%v", err)
	}
}

func TestClient_ResolveVanityURL(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "secret-key" {
			t.Errorf("missing api key")
		}
		switch r.URL.Query().Get("vanityurl") {
		case "gaben":
			_, _ = w.Write([]byte(`{"response":{"steamid":"` + testSteamID + `","success":1}}`))
		default:
			_, _ = w.Write([]byte(`{"response":{"success":42,"message":"No match"}}`))
		}
	})

	id, found, err := client.ResolveVanityURL(context.Background(), "gaben")
	if err != nil || !found || id != testSteamID {
		t.Fatalf("unexpected resolve result: id=%q found=%v err=%v", id, found, err)
	}
	_, found, err = client.ResolveVanityURL(context.Background(), "nobody")
	if err != nil || found {
		t.Fatalf("expected not found without error, found=%v err=%v", found, err)
	}
}

func TestClient_GetPlayerBans(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ISteamUser/GetPlayerBans/v1/" || r.URL.Query().Get("steamids") != testSteamID {
			t.Errorf("unexpected request: %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"players":[{"SteamId":"` + testSteamID + `","CommunityBanned":false,"VACBanned":true,"NumberOfVACBans":1,"DaysSinceLastBan":120,"NumberOfGameBans":0,"EconomyBan":"none"}]}`))
	})

	bans, err := client.GetPlayerBans(context.Background(), []string{testSteamID})
	if err != nil {
		t.Fatalf("GetPlayerBans error: %v", err)
	}
	if len(bans) != 1 || !bans[0].VACBanned || bans[0].DaysSinceLastBan != 120 || bans[0].EconomyBan != "none" {
		t.Fatalf("unexpected bans: %+v", bans)
	}
}

func TestClient_WebAPIRequiresKey(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{Logger: logging.NewNop()})
	if _, err := client.GetPlayerBans(context.Background(), []string{testSteamID}); !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got=%v", err)
	}
}

func TestClient_CircuitBreakerOpensOnRateLimit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		HTTPClient:       server.Client(),
		CommunityBaseURL: server.URL,
		Logger:           logging.NewNop(),
		CircuitBreaker:   resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 2},
	})

	for i := 0; i < 2; i++ {
		if _, err := client.FetchPriceOverview(context.Background(), "item"); !errors.Is(err, usecase.ErrSourceRateLimited) {
			t.Fatalf("attempt %d expected rate limit, got=%v", i, err)
		}
	}
	_, err := client.FetchPriceOverview(context.Background(), "item")
	if !errors.Is(err, usecase.ErrSourceRateLimited) {
		t.Fatalf("expected open breaker to report rate limit, got=%v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 upstream calls, got=%d", calls.Load())
	}
}

func TestClient_CircuitBreakerOpensOnServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		HTTPClient:       server.Client(),
		CommunityBaseURL: server.URL,
		Logger:           logging.NewNop(),
		CircuitBreaker:   resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1},
	})

	if _, err := client.FetchPriceOverview(context.Background(), "item"); errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("first failure should reach upstream, got=%v", err)
	}
	_, err := client.FetchPriceOverview(context.Background(), "item")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected breaker to reject, got=%v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 upstream call, got=%d", calls.Load())
	}
}

func TestClient_MarketBreakerDoesNotRejectInventory(t *testing.T) {
	t.Parallel()

	var inventoryCalls, marketCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/market/priceoverview/" {
			marketCalls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		inventoryCalls.Add(1)
		_, _ = w.Write([]byte(`{"assets":[],"descriptions":[],"more_items":0,"total_inventory_count":0,"success":1}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		HTTPClient:       server.Client(),
		CommunityBaseURL: server.URL,
		Logger:           logging.NewNop(),
		CircuitBreaker:   resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1},
	})

	for i := 0; i < 3; i++ {
		_, _ = client.FetchPriceOverview(context.Background(), "item")
	}
	if marketCalls.Load() != 1 {
		t.Fatalf("expected market breaker to open after 1 call, got=%d", marketCalls.Load())
	}

	if _, err := client.FetchInventoryPage(context.Background(), testSteamID, 75, ""); err != nil {
		t.Fatalf("inventory fetch rejected by market breaker: %v", err)
	}
	if inventoryCalls.Load() != 1 {
		t.Fatalf("expected 1 inventory call, got=%d", inventoryCalls.Load())
	}
}

func TestClient_FetchInventoryPage_ServerErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		HTTPClient:       server.Client(),
		CommunityBaseURL: server.URL,
		MaxRetries:       3,
		Logger:           logging.NewNop(),
		CircuitBreaker:   resilience.CircuitBreakerConfig{Enabled: false},
	})

	_, err := client.FetchInventoryPage(context.Background(), testSteamID, 75, "")
	var se *usecase.SourceStatusError
	if !errors.As(err, &se) || se.Error() != "Steam API error: 500" {
		t.Fatalf("expected Steam API error: 500, got=%v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("inventory 500 should not be retried, calls=%d", calls.Load())
	}
}

func TestSanitizeSensitiveText(t *testing.T) {
	t.Parallel()

	got := sanitizeSensitiveText(`Get "https://api.steampowered.com/x?key=abc123&steamids=1": timeout`, "abc123")
	if got != `Get "https://api.steampowered.com/x?key=REDACTED&steamids=1": timeout` {
		t.Fatalf("unexpected sanitized text: %s", got)
	}
}

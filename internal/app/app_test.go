package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/evidence-portal/internal/config"
	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
)

func testConfig() config.Config {
	return config.Config{
		AppEnv:             config.EnvDev,
		HTTPAddr:           ":0",
		CORSAllowedOrigins: []string{"*"},
		Inventory: config.InventoryConfig{
			PageSize:       75,
			MaxPages:       1,
			ValuationTTL:   time.Hour,
			LookupCacheTTL: time.Minute,
		},
		Pricing: config.PricingConfig{
			CacheTTL:         time.Hour,
			BulkSnapshotTTL:  time.Minute,
			UpsertChunkSize:  10,
			WriteBackWorkers: 1,
		},
		Demo: config.DemoConfig{
			ParseTimeout:   time.Second,
			MaxBytes:       1 << 20,
			DecodeCacheTTL: time.Minute,
		},
	}
}

func TestNewHTTPServer_RequiresAddr(t *testing.T) {
	cfg := testConfig()
	cfg.HTTPAddr = ""
	if _, _, err := NewHTTPServer(context.Background(), cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}

func TestNewHTTPServer_InMemoryWiring(t *testing.T) {
	srv, cleanup, err := NewHTTPServer(context.Background(), testConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("build server: %v", err)
	}
	t.Cleanup(cleanup)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected healthz 200, got=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/demos/inspect", strings.NewReader(`{"object_key":"demos/a.dem"}`))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without object storage, got=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestBase64Len(t *testing.T) {
	cases := map[int64]int64{0: 0, 1: 4, 3: 4, 4: 8, 300: 400}
	for in, want := range cases {
		if got := base64Len(in); got != want {
			t.Fatalf("base64Len(%d): expected %d, got %d", in, want, got)
		}
	}
}

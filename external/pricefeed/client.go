package pricefeed

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Feeds for the whole CS2 market run to several megabytes.
const maxFeedBytes = 64 << 20

var errFeedTransient = crerr.New("price feed transient failure")

type ClientConfig struct {
	HTTPClient *http.Client
	URL        string
	Timeout    time.Duration
	MaxRetries int
	Logger     *logging.Logger
}

// Client downloads a bulk price feed shaped as {"<market hash name>":
// {"price": <dollars>}}. It implements usecase.BulkPriceFeed.
type Client struct {
	httpClient *http.Client
	url        string
	maxRetries int
	logger     *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 60 * time.Second
	}

	return &Client{
		httpClient: httpClient,
		url:        strings.TrimSpace(cfg.URL),
		maxRetries: max(cfg.MaxRetries, 0),
		logger:     logger.Named("price_feed"),
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.url != ""
}

// FetchBulkPrices returns dollar prices keyed by market hash name. Entries
// without a usable price are skipped.
func (c *Client) FetchBulkPrices(ctx context.Context) (map[string]float64, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("price feed url is not configured")
	}

	raw, err := c.executeRequest(ctx)
	if err != nil {
		return nil, err
	}

	var payload map[string]feedEntry
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return nil, crerr.Wrap(err, "decode price feed")
	}

	out := make(map[string]float64, len(payload))
	for name, entry := range payload {
		if entry.Price == nil || math.IsNaN(*entry.Price) || *entry.Price <= 0 {
			continue
		}
		out[name] = *entry.Price
	}
	return out, nil
}

func (c *Client) executeRequest(ctx context.Context) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errFeedTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errFeedTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
				lastErr = fmt.Errorf("%w: feed status=%d", errFeedTransient, resp.StatusCode)
			default:
				return nil, fmt.Errorf("feed status=%d", resp.StatusCode)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "price feed request failed", "error", lastErr)
	return nil, lastErr
}

type feedEntry struct {
	Price *float64 `json:"price"`
}

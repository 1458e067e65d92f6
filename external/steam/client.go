package steam

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
	"github.com/riskibarqy/evidence-portal/internal/platform/resilience"
	"github.com/riskibarqy/evidence-portal/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCommunityBaseURL = "https://steamcommunity.com"
	defaultAPIBaseURL       = "https://api.steampowered.com"
	defaultUserAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxBodyBytes            = 6 << 20
)

var apiKeyParamRegex = regexp.MustCompile(`key=[^&\s"']+`)
var errSteamTransient = crerr.New("steam transient failure")

type ClientConfig struct {
	HTTPClient       *http.Client
	CommunityBaseURL string
	APIBaseURL       string
	APIKey           string
	UserAgent        string
	Timeout          time.Duration
	MaxRetries       int
	Logger           *logging.Logger
	CircuitBreaker   resilience.CircuitBreakerConfig
}

// Client talks to the Steam community site (inventory, market) and the
// Steam Web API. It implements usecase.InventorySource,
// usecase.ItemPriceSource and usecase.SteamProfileSource.
type Client struct {
	httpClient       *http.Client
	communityBaseURL string
	apiBaseURL       string
	apiKey           string
	userAgent        string
	maxRetries       int
	logger           *logging.Logger
	flight           singleflight.Group

	inventory *endpoint
	market    *endpoint
	webAPI    *endpoint
}

// endpoint is one Steam surface. Each has its own breaker, so market
// throttling never rejects inventory pages.
type endpoint struct {
	name    string
	breaker *resilience.CircuitBreaker
	// retryStatus retries 5xx responses. Inventory pages never retry a
	// status: the caller owns the single 400 retry.
	retryStatus bool
	// rateLimited records whether the latest breaker failure was a 429.
	rateLimited atomic.Bool
}

func newEndpoint(name string, cfg resilience.CircuitBreakerConfig, retryStatus bool, logger *logging.Logger) *endpoint {
	ep := &endpoint{name: name, breaker: resilience.NewCircuitBreaker(cfg), retryStatus: retryStatus}
	ep.breaker.OnStateChange(func(from, to resilience.CircuitState) {
		logger.Warn("steam circuit breaker state changed", "endpoint", name, "from", from, "to", to)
	})
	return ep
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
		httpClient.Timeout = 20 * time.Second
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	client := &Client{
		httpClient:       httpClient,
		communityBaseURL: trimBaseURL(cfg.CommunityBaseURL, defaultCommunityBaseURL),
		apiBaseURL:       trimBaseURL(cfg.APIBaseURL, defaultAPIBaseURL),
		apiKey:           strings.TrimSpace(cfg.APIKey),
		userAgent:        userAgent,
		maxRetries:       max(cfg.MaxRetries, 0),
		logger:           logger.Named("steam"),
	}
	client.inventory = newEndpoint("inventory", cfg.CircuitBreaker, false, client.logger)
	client.market = newEndpoint("market", cfg.CircuitBreaker, true, client.logger)
	client.webAPI = newEndpoint("webapi", cfg.CircuitBreaker, true, client.logger)
	return client
}

// HasAPIKey reports whether Web API calls are possible.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// statusError is a non-success response that was not retried.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("steam status=%d body=%s", e.code, e.body)
}

// getJSON fetches fullURL through ep and decodes it into target.
// Concurrent identical requests share one round trip.
func (c *Client) getJSON(ctx context.Context, ep *endpoint, fullURL, accept string, target any) error {
	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		var raw []byte
		execErr := ep.breaker.Execute(func() error {
			var reqErr error
			raw, reqErr = c.executeRequest(ctx, ep, fullURL, accept)
			if isCircuitFailure(reqErr) {
				ep.rateLimited.Store(statusCode(reqErr) == http.StatusTooManyRequests)
			}
			return reqErr
		}, isCircuitFailure)
		if stderrors.Is(execErr, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "steam circuit breaker rejected request", "endpoint", ep.name, "state", ep.breaker.State())
			if ep.rateLimited.Load() {
				// Still throttled: report it the way the upstream would.
				return nil, &statusError{code: http.StatusTooManyRequests, body: "circuit open"}
			}
			return nil, fmt.Errorf("%w: steam %s is temporarily unavailable", usecase.ErrDependencyUnavailable, ep.name)
		}
		return raw, execErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode steam payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, ep *endpoint, fullURL, accept string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		if accept != "" {
			req.Header.Set("Accept", accept)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errSteamTransient, sanitizeSensitiveText(err.Error(), c.apiKey))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errSteamTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: %w", errSteamTransient, &statusError{code: resp.StatusCode, body: abbreviateBody(raw)})
				if !ep.retryStatus {
					return nil, lastErr
				}
			default:
				return nil, &statusError{code: resp.StatusCode, body: abbreviateBody(raw)}
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("steam request failed")
	}
	c.logger.WarnContext(ctx, "steam request failed", "endpoint", ep.name, "url", redactAPIURL(fullURL), "error", lastErr)
	return nil, lastErr
}

// statusCode extracts the HTTP status carried by err, or 0.
func statusCode(err error) int {
	var se *statusError
	if stderrors.As(err, &se) {
		return se.code
	}
	return 0
}

func isCircuitFailure(err error) bool {
	return stderrors.Is(err, errSteamTransient) || statusCode(err) == http.StatusTooManyRequests
}

// isRetryableStatus leaves 429 to the caller, which stops on it.
func isRetryableStatus(code int) bool {
	return code >= http.StatusInternalServerError
}

func sanitizeSensitiveText(value, key string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if key != "" {
		value = strings.ReplaceAll(value, key, "REDACTED")
	}
	return apiKeyParamRegex.ReplaceAllString(value, "key=REDACTED")
}

func redactAPIURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	if query.Has("key") {
		query.Set("key", "REDACTED")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func trimBaseURL(value, fallback string) string {
	value = strings.TrimRight(strings.TrimSpace(value), "/")
	if value == "" {
		return fallback
	}
	return value
}

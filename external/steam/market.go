package steam

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/riskibarqy/evidence-portal/internal/usecase"
)

// USD on the community market.
const marketCurrencyUSD = 1

// FetchPriceOverview returns the market quote of one item in USD.
func (c *Client) FetchPriceOverview(ctx context.Context, marketHashName string) (usecase.PriceOverview, error) {
	marketHashName = strings.TrimSpace(marketHashName)
	if marketHashName == "" {
		return usecase.PriceOverview{}, fmt.Errorf("%w: market hash name is required", usecase.ErrInvalidInput)
	}

	values := url.Values{}
	values.Set("appid", strconv.Itoa(appIDCS2))
	values.Set("currency", strconv.Itoa(marketCurrencyUSD))
	values.Set("market_hash_name", marketHashName)
	fullURL := c.communityBaseURL + "/market/priceoverview/?" + values.Encode()

	var payload priceOverviewEnvelope
	if err := c.getJSON(ctx, c.market, fullURL, "", &payload); err != nil {
		switch code := statusCode(err); {
		case code == http.StatusTooManyRequests:
			return usecase.PriceOverview{}, usecase.ErrSourceRateLimited
		case code != 0:
			return usecase.PriceOverview{}, &usecase.SourceStatusError{StatusCode: code}
		case stderrors.Is(err, usecase.ErrDependencyUnavailable):
			return usecase.PriceOverview{}, err
		default:
			return usecase.PriceOverview{}, fmt.Errorf("fetch price overview: %w", err)
		}
	}

	return usecase.PriceOverview{
		Success:     bool(payload.Success),
		LowestPrice: payload.LowestPrice,
		MedianPrice: payload.MedianPrice,
	}, nil
}

type priceOverviewEnvelope struct {
	Success     flexBool `json:"success"`
	LowestPrice string   `json:"lowest_price"`
	MedianPrice string   `json:"median_price"`
	Volume      string   `json:"volume"`
}

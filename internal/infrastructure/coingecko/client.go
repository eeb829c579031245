package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vitos/cryptomaniac/internal/domain"
	"github.com/vitos/cryptomaniac/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

const (
	BaseURL = "https://api.coingecko.com/api/v3"

	// APIKeyHeader carries the demo-plan key.
	APIKeyHeader = "x-cg-demo-api-key"

	MarketsPerPage   = 100
	SearchResultsMax = 10
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("coingecko api error: status %d: %s", e.StatusCode, e.Body)
}

// Unwrap maps 404 onto domain.ErrNotFound so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return nil
}

// Client is a thin read-only CoinGecko v3 client. It never retries.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

var _ domain.MarketDataProvider = (*Client)(nil)

// NewClient creates a client. An empty apiKey sends unauthenticated requests;
// an empty baseURL uses BaseURL.
func NewClient(apiKey, baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) sendRequest(ctx context.Context, endpoint, path string, params url.Values, out interface{}) error {
	start := time.Now()
	err := c.doRequest(ctx, path, params, out)
	metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	outcome := "ok"
	var apiErr *APIError
	switch {
	case err == nil:
	case errors.As(err, &apiErr):
		outcome = strconv.Itoa(apiErr.StatusCode)
	default:
		outcome = "error"
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, outcome).Inc()

	if err != nil {
		c.logger.Error("CoinGecko request failed",
			zap.String("endpoint", endpoint),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
	}
	return err
}

func (c *Client) doRequest(ctx context.Context, path string, params url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// FetchMarketData returns one page of listings ordered by market cap descending.
func (c *Client) FetchMarketData(ctx context.Context, currency string, page int) ([]domain.MarketListing, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("vs_currency", currency)
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(MarketsPerPage))
	params.Set("page", strconv.Itoa(page))
	params.Set("sparkline", "false")
	params.Set("price_change_percentage", "1h,24h,7d")

	var listings []domain.MarketListing
	if err := c.sendRequest(ctx, "markets", "/coins/markets", params, &listings); err != nil {
		return nil, fmt.Errorf("fetch market data: %w", err)
	}
	return listings, nil
}

// FetchCoinData returns the detail record for id without tickers,
// community or developer data.
func (c *Client) FetchCoinData(ctx context.Context, id string) (*domain.CoinDetail, error) {
	params := url.Values{}
	params.Set("localization", "false")
	params.Set("tickers", "false")
	params.Set("market_data", "true")
	params.Set("community_data", "false")
	params.Set("developer_data", "false")
	params.Set("sparkline", "false")

	var coin domain.CoinDetail
	if err := c.sendRequest(ctx, "coin", "/coins/"+url.PathEscape(id), params, &coin); err != nil {
		return nil, fmt.Errorf("fetch coin %s: %w", id, err)
	}
	return &coin, nil
}

type marketChartResponse struct {
	Prices       [][]float64 `json:"prices"`
	MarketCaps   [][]float64 `json:"market_caps"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}

func toPoints(raw [][]float64) []domain.ChartPoint {
	points := make([]domain.ChartPoint, 0, len(raw))
	for _, p := range raw {
		if len(p) < 2 {
			continue
		}
		points = append(points, domain.ChartPoint{Timestamp: int64(p[0]), Price: p[1]})
	}
	return points
}

// FetchCoinChartData returns the daily price history for the last days days
// ("max" for the full history).
func (c *Client) FetchCoinChartData(ctx context.Context, id, currency, days string) (*domain.ChartSeries, error) {
	params := url.Values{}
	params.Set("vs_currency", currency)
	params.Set("days", days)
	params.Set("interval", "daily")

	var raw marketChartResponse
	path := "/coins/" + url.PathEscape(id) + "/market_chart"
	if err := c.sendRequest(ctx, "market_chart", path, params, &raw); err != nil {
		return nil, fmt.Errorf("fetch chart %s (%s days): %w", id, days, err)
	}

	series := &domain.ChartSeries{
		Prices:       toPoints(raw.Prices),
		MarketCaps:   toPoints(raw.MarketCaps),
		TotalVolumes: toPoints(raw.TotalVolumes),
	}
	series.SortByTime()
	return series, nil
}

// SearchCoins returns at most SearchResultsMax coins matching query.
func (c *Client) SearchCoins(ctx context.Context, query string) ([]domain.SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)

	var result struct {
		Coins []domain.SearchResult `json:"coins"`
	}
	if err := c.sendRequest(ctx, "search", "/search", params, &result); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	if len(result.Coins) > SearchResultsMax {
		result.Coins = result.Coins[:SearchResultsMax]
	}
	return result.Coins, nil
}

package domain

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the API answers but the requested coin does not exist.
var ErrNotFound = errors.New("not found")

// MarketDataProvider defines the read-only market data API used by the views.
type MarketDataProvider interface {
	FetchMarketData(ctx context.Context, currency string, page int) ([]MarketListing, error)
	FetchCoinData(ctx context.Context, id string) (*CoinDetail, error)
	FetchCoinChartData(ctx context.Context, id, currency, days string) (*ChartSeries, error)
	SearchCoins(ctx context.Context, query string) ([]SearchResult, error)
}

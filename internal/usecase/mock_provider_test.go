package usecase

import (
	"context"
	"sync"

	"github.com/vitos/cryptomaniac/internal/domain"
)

// MockProvider is a scriptable domain.MarketDataProvider. Any nil func
// returns zero values.
type MockProvider struct {
	mu sync.Mutex

	MarketsFn func(ctx context.Context, currency string, page int) ([]domain.MarketListing, error)
	CoinFn    func(ctx context.Context, id string) (*domain.CoinDetail, error)
	ChartFn   func(ctx context.Context, id, currency, days string) (*domain.ChartSeries, error)
	SearchFn  func(ctx context.Context, query string) ([]domain.SearchResult, error)

	MarketCalls []string
	ChartCalls  []string
	SearchCalls []string
}

func (m *MockProvider) FetchMarketData(ctx context.Context, currency string, page int) ([]domain.MarketListing, error) {
	m.mu.Lock()
	m.MarketCalls = append(m.MarketCalls, currency)
	fn := m.MarketsFn
	m.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, currency, page)
}

func (m *MockProvider) FetchCoinData(ctx context.Context, id string) (*domain.CoinDetail, error) {
	if m.CoinFn == nil {
		return &domain.CoinDetail{ID: id}, nil
	}
	return m.CoinFn(ctx, id)
}

func (m *MockProvider) FetchCoinChartData(ctx context.Context, id, currency, days string) (*domain.ChartSeries, error) {
	m.mu.Lock()
	m.ChartCalls = append(m.ChartCalls, days)
	m.mu.Unlock()
	if m.ChartFn == nil {
		return &domain.ChartSeries{}, nil
	}
	return m.ChartFn(ctx, id, currency, days)
}

func (m *MockProvider) SearchCoins(ctx context.Context, query string) ([]domain.SearchResult, error) {
	m.mu.Lock()
	m.SearchCalls = append(m.SearchCalls, query)
	fn := m.SearchFn
	m.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, query)
}

func (m *MockProvider) marketCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.MarketCalls)
}

func (m *MockProvider) searchCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.SearchCalls))
	copy(out, m.SearchCalls)
	return out
}

func f64(v float64) *float64 { return &v }

func intp(v int) *int { return &v }

func listing(id, name string, marketCap float64, rank int) domain.MarketListing {
	return domain.MarketListing{
		ID:            id,
		Name:          name,
		Symbol:        id,
		MarketCap:     f64(marketCap),
		MarketCapRank: intp(rank),
		CurrentPrice:  f64(marketCap / 1000),
	}
}

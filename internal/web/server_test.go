package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitos/cryptomaniac/internal/domain"
	"github.com/vitos/cryptomaniac/internal/usecase"
)

type fakeProvider struct {
	mu          sync.Mutex
	failMarkets bool
	coinCalls   int
	chartDays   []string
	searches    []string
	failCoin    bool
	failSearch  bool
}

func f64(v float64) *float64 { return &v }

func intp(v int) *int { return &v }

func (p *fakeProvider) FetchMarketData(ctx context.Context, currency string, page int) ([]domain.MarketListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	fail := p.failMarkets
	p.mu.Unlock()
	if fail {
		return nil, errors.New("upstream down")
	}
	return []domain.MarketListing{
		{ID: "bitcoin", Name: "Bitcoin", Symbol: "btc", CurrentPrice: f64(65000), MarketCap: f64(1.28e12), MarketCapRank: intp(1), PriceChangePercentage24h: f64(1.5)},
		{ID: "ethereum", Name: "Ethereum", Symbol: "eth", CurrentPrice: f64(3000), MarketCap: f64(3.6e11), MarketCapRank: intp(2), PriceChangePercentage24h: f64(-2.25)},
	}, nil
}

func (p *fakeProvider) FetchCoinData(ctx context.Context, id string) (*domain.CoinDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.coinCalls++
	if p.failCoin {
		return nil, errors.New("upstream down")
	}
	if id != "bitcoin" {
		return nil, domain.ErrNotFound
	}
	return &domain.CoinDetail{
		ID:     "bitcoin",
		Name:   "Bitcoin",
		Symbol: "btc",
		Description: map[string]string{
			"en": `<a href="https://bitcoin.org">Bitcoin</a> is &amp; was digital money.<script>alert(1)</script>`,
		},
		MarketData: domain.MarketData{CurrentPrice: domain.CurrencyMap{"usd": 65000}},
	}, nil
}

func (p *fakeProvider) FetchCoinChartData(ctx context.Context, id, currency, days string) (*domain.ChartSeries, error) {
	p.mu.Lock()
	p.chartDays = append(p.chartDays, days)
	p.mu.Unlock()
	if id != "bitcoin" {
		return nil, domain.ErrNotFound
	}
	day := int64(86400000)
	return &domain.ChartSeries{Prices: []domain.ChartPoint{
		{Timestamp: 1700000000000, Price: 60000},
		{Timestamp: 1700000000000 + day, Price: 62000},
		{Timestamp: 1700000000000 + 2*day, Price: 65000},
	}}, nil
}

func (p *fakeProvider) SearchCoins(ctx context.Context, query string) ([]domain.SearchResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.searches = append(p.searches, query)
	if p.failSearch {
		return nil, errors.New("rate limited")
	}
	return []domain.SearchResult{
		{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC", MarketCapRank: intp(1)},
		{ID: "bitcoin-cash", Name: "Bitcoin Cash", Symbol: "BCH"},
		{ID: "wrapped-bitcoin", Name: "Wrapped Bitcoin", Symbol: "WBTC"},
	}, nil
}

type testEnv struct {
	server   *Server
	provider *fakeProvider
	session  *usecase.Session
	list     *usecase.ListView
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	p := &fakeProvider{}
	session := usecase.NewSession("usd")
	list := usecase.NewListView(p, session, time.Hour, zap.NewNop())
	detail := usecase.NewDetailView(p, session, zap.NewNop())
	cfg := usecase.SearchConfig{Debounce: 10 * time.Millisecond, MinLength: 2, Limit: 2}
	return &testEnv{
		server:   NewServer(0, p, session, list, detail, cfg, zap.NewNop()),
		provider: p,
		session:  session,
		list:     list,
	}
}

func (e *testEnv) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.list.Refresh(context.Background()))

	rec := env.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Bitcoin")
	assert.Contains(t, body, "$65,000.00")
	assert.Contains(t, body, "$1,280,000,000,000.00")
	assert.Contains(t, body, "&#43;1.50%")
	assert.Contains(t, body, "-2.25%")
	assert.Contains(t, body, "Total coins: 2")
	assert.Contains(t, body, "Total market cap: $1,640,000,000,000.00")
}

func TestIndex_ErrorStateOffersRetry(t *testing.T) {
	env := newTestEnv(t)
	env.provider.failMarkets = true
	require.Error(t, env.list.Refresh(context.Background()))

	rec := env.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to load cryptocurrency data")
	assert.Contains(t, rec.Body.String(), `action="/retry"`)

	env.provider.mu.Lock()
	env.provider.failMarkets = false
	env.provider.mu.Unlock()

	rec = env.do(http.MethodPost, "/retry", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, usecase.StatusReady, env.list.Snapshot().Status)
}

func TestRetry_ClientDisconnectStillRefreshes(t *testing.T) {
	env := newTestEnv(t)
	env.provider.failMarkets = true
	require.Error(t, env.list.Refresh(context.Background()))
	env.provider.mu.Lock()
	env.provider.failMarkets = false
	env.provider.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/retry", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, usecase.StatusReady, env.list.Snapshot().Status)
}

func TestListingForms(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.list.Refresh(context.Background()))

	rec := env.do(http.MethodPost, "/sort/name", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, domain.SortByName, env.list.Snapshot().Sort.Key)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/sort/volume", url.Values{}).Code)

	rec = env.do(http.MethodPost, "/favorites/bitcoin", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, env.session.IsFavorite("bitcoin"))

	rec = env.do(http.MethodPost, "/currency", url.Values{"currency": {"EUR"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "eur", env.session.Currency())
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/currency", url.Values{"currency": {"xyz"}}).Code)

	rec = env.do(http.MethodPost, "/page", url.Values{"page": {"2"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 2, env.list.Snapshot().Page)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/page", url.Values{"page": {"abc"}}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/page", url.Values{"page": {"11"}}).Code)
}

func TestCoinPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/coin/bitcoin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Bitcoin")
	assert.Contains(t, body, "$65,000.00")
	assert.Contains(t, body, `href="https://bitcoin.org"`)
	assert.Contains(t, body, ">Bitcoin</a> is &amp; was digital money.")
	assert.NotContains(t, body, "alert(1)")
	assert.Contains(t, body, "/coin/bitcoin/chart.png?range=10")

	rec = env.do(http.MethodGet, "/coin/bitcoin?range=30", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/coin/bitcoin/chart.png?range=30")

	env.provider.mu.Lock()
	assert.Equal(t, 1, env.provider.coinCalls, "range change only refetches the chart")
	assert.Equal(t, []string{"10", "30"}, env.provider.chartDays)
	env.provider.mu.Unlock()
}

func TestCoinPage_NotFoundAndError(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/coin/no-such-coin", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Coin not found")

	env.provider.failCoin = true
	rec = env.do(http.MethodGet, "/coin/bitcoin", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to load coin data")
	assert.Contains(t, rec.Body.String(), "Try again")
}

func TestCoinPage_ClientDisconnectDoesNotFailSharedView(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/coin/bitcoin", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	_, status := env.server.detail.Current()
	assert.Equal(t, usecase.StatusReady, status)
}

func TestCoinChartPNG(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/coin/bitcoin", nil).Code)

	rec := env.do(http.MethodGet, "/coin/bitcoin/chart.png?range=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))

	env.provider.mu.Lock()
	assert.Equal(t, []string{"10"}, env.provider.chartDays, "on-screen chart is reused")
	env.provider.mu.Unlock()

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/coin/bitcoin/chart.png?range=2", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/coin/nope/chart.png", nil).Code)
}

func TestJSONEndpoints(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.list.Refresh(context.Background()))

	rec := env.do(http.MethodGet, "/api/markets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snap usecase.ListSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, usecase.StatusReady, snap.Status)
	assert.Len(t, snap.Listings, 2)

	rec = env.do(http.MethodGet, "/api/coins/bitcoin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Bitcoin"`)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/coins/nope", nil).Code)

	rec = env.do(http.MethodGet, "/api/coins/bitcoin/chart?days=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var series domain.ChartSeries
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
	assert.Len(t, series.Prices, 3)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/coins/bitcoin/chart?days=5", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/coins/bitcoin/chart?currency=xyz", nil).Code)
}

func TestSearchJSON(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/search?q=b", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Empty(t, env.provider.searches)

	rec = env.do(http.MethodGet, "/api/search?q=bit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var results []domain.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	assert.Len(t, results, 2)

	env.provider.failSearch = true
	assert.Equal(t, http.StatusBadGateway, env.do(http.MethodGet, "/api/search?q=bit", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.list.Refresh(context.Background()))

	rec := env.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cryptomaniac_listings")
}

func dialWS(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(strings.Replace(srv.URL, "http://", "ws://", 1)+path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return conn
}

func TestMarketsWebsocket(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	conn := dialWS(t, srv, "/ws/markets")

	var snap usecase.ListSnapshot
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, usecase.StatusLoading, snap.Status)

	require.NoError(t, env.list.Refresh(context.Background()))
	for snap.Status != usecase.StatusReady {
		require.NoError(t, conn.ReadJSON(&snap))
	}
	assert.Len(t, snap.Listings, 2)
}

func TestSearchWebsocket(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	conn := dialWS(t, srv, "/ws/search")
	require.NoError(t, conn.WriteJSON(map[string]string{"query": "bitcoin"}))

	var snap usecase.SearchSnapshot
	for !snap.Open {
		require.NoError(t, conn.ReadJSON(&snap))
	}
	require.Len(t, snap.Results, 2)
	assert.Equal(t, "bitcoin", snap.Query)

	require.NoError(t, conn.WriteJSON(map[string]string{"select": "bitcoin-cash"}))
	var nav navigateMessage
	for nav.Navigate == "" {
		require.NoError(t, conn.ReadJSON(&nav))
	}
	assert.Equal(t, "/coin/bitcoin-cash", nav.Navigate)
}

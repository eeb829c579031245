package domain

import (
	"sort"
	"strings"
	"time"
)

// MarketListing is one row of the /coins/markets response.
type MarketListing struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	Image                    string   `json:"image"`
	CurrentPrice             *float64 `json:"current_price"`
	MarketCap                *float64 `json:"market_cap"`
	MarketCapRank            *int     `json:"market_cap_rank"`
	TotalVolume              *float64 `json:"total_volume"`
	High24h                  *float64 `json:"high_24h"`
	Low24h                   *float64 `json:"low_24h"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	CirculatingSupply        *float64 `json:"circulating_supply"`
	LastUpdated              string   `json:"last_updated,omitempty"`

	PriceChangePercentage1hInCurrency  *float64 `json:"price_change_percentage_1h_in_currency,omitempty"`
	PriceChangePercentage24hInCurrency *float64 `json:"price_change_percentage_24h_in_currency,omitempty"`
	PriceChangePercentage7dInCurrency  *float64 `json:"price_change_percentage_7d_in_currency,omitempty"`
}

// CoinDetail is the /coins/{id} payload with tickers, community and developer
// blocks disabled.
type CoinDetail struct {
	ID            string            `json:"id"`
	Symbol        string            `json:"symbol"`
	Name          string            `json:"name"`
	MarketCapRank *int              `json:"market_cap_rank"`
	Image         CoinImage         `json:"image"`
	Categories    []string          `json:"categories"`
	Description   map[string]string `json:"description"`
	Links         CoinLinks         `json:"links"`
	MarketData    MarketData        `json:"market_data"`
	LastUpdated   time.Time         `json:"last_updated"`
}

type CoinImage struct {
	Thumb string `json:"thumb"`
	Small string `json:"small"`
	Large string `json:"large"`
}

type CoinLinks struct {
	Homepage          []string `json:"homepage"`
	TwitterScreenName string   `json:"twitter_screen_name"`
	SubredditURL      string   `json:"subreddit_url"`
	ReposURL          struct {
		GitHub []string `json:"github"`
	} `json:"repos_url"`
}

// CurrencyMap is a per vs_currency value block, e.g. {"usd": 1.0, "eur": 0.9}.
type CurrencyMap map[string]float64

// In returns the value for the given currency code, or nil when the API left it out.
func (m CurrencyMap) In(currency string) *float64 {
	v, ok := m[strings.ToLower(currency)]
	if !ok {
		return nil
	}
	return &v
}

type MarketData struct {
	CurrentPrice          CurrencyMap `json:"current_price"`
	High24h               CurrencyMap `json:"high_24h"`
	Low24h                CurrencyMap `json:"low_24h"`
	MarketCap             CurrencyMap `json:"market_cap"`
	TotalVolume           CurrencyMap `json:"total_volume"`
	FullyDilutedValuation CurrencyMap `json:"fully_diluted_valuation"`
	ATH                   CurrencyMap `json:"ath"`
	ATHChangePercentage   CurrencyMap `json:"ath_change_percentage"`
	ATL                   CurrencyMap `json:"atl"`
	ATLChangePercentage   CurrencyMap `json:"atl_change_percentage"`

	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	CirculatingSupply        *float64 `json:"circulating_supply"`
	TotalSupply              *float64 `json:"total_supply"`
	MaxSupply                *float64 `json:"max_supply"`
}

// DescriptionIn returns the description for lang, falling back to English.
func (c *CoinDetail) DescriptionIn(lang string) string {
	if d, ok := c.Description[lang]; ok && d != "" {
		return d
	}
	return c.Description["en"]
}

// FirstHomepage returns the first non-empty homepage link.
func (l CoinLinks) FirstHomepage() string {
	for _, h := range l.Homepage {
		if h != "" {
			return h
		}
	}
	return ""
}

func (l CoinLinks) FirstGitHub() string {
	for _, g := range l.ReposURL.GitHub {
		if g != "" {
			return g
		}
	}
	return ""
}

// ChartPoint is a single (timestamp, price) sample. Timestamp is in milliseconds.
type ChartPoint struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
}

func (p ChartPoint) Time() time.Time {
	return time.UnixMilli(p.Timestamp).UTC()
}

// ChartSeries is the /coins/{id}/market_chart payload. Only Prices is plotted.
type ChartSeries struct {
	Prices       []ChartPoint `json:"prices"`
	MarketCaps   []ChartPoint `json:"market_caps"`
	TotalVolumes []ChartPoint `json:"total_volumes"`
}

// SortByTime orders every series by timestamp ascending.
func (s *ChartSeries) SortByTime() {
	for _, pts := range [][]ChartPoint{s.Prices, s.MarketCaps, s.TotalVolumes} {
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].Timestamp < pts[j].Timestamp })
	}
}

// Rising reports whether the last price is at or above the first one.
// An empty series counts as rising.
func Rising(points []ChartPoint) bool {
	if len(points) == 0 {
		return true
	}
	return points[len(points)-1].Price >= points[0].Price
}

// SearchResult is one entry of the /search "coins" list.
type SearchResult struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Thumb         string `json:"thumb"`
	MarketCapRank *int   `json:"market_cap_rank"`
}

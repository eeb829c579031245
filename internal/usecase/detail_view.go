package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vitos/cryptomaniac/internal/domain"
)

const detailErrorMessage = "Failed to load coin data"

// DetailSnapshot is a copy of the coin page state.
type DetailSnapshot struct {
	Status   ViewStatus          `json:"status"`
	Error    string              `json:"error,omitempty"`
	ID       string              `json:"id"`
	Coin     *domain.CoinDetail  `json:"coin,omitempty"`
	Chart    []domain.ChartPoint `json:"chart"`
	Days     string              `json:"days"`
	Currency string              `json:"currency"`
	Rising   bool                `json:"rising"`
}

// DetailView loads one coin's detail record and price chart.
type DetailView struct {
	provider    domain.MarketDataProvider
	session     *Session
	logger      *zap.Logger
	defaultDays string

	mu         sync.Mutex
	generation uint64
	status     ViewStatus
	errMsg     string
	id         string
	currency   string
	coin       *domain.CoinDetail
	chart      []domain.ChartPoint
	days       string
}

func NewDetailView(provider domain.MarketDataProvider, session *Session, logger *zap.Logger) *DetailView {
	return &DetailView{
		provider:    provider,
		session:     session,
		logger:      logger,
		defaultDays: domain.DefaultChartDays,
		status:      StatusLoading,
		days:        domain.DefaultChartDays,
	}
}

// SetDefaultRange changes the window Load fetches for a newly opened coin.
func (v *DetailView) SetDefaultRange(days string) error {
	if !domain.ValidTimeRange(days) {
		return fmt.Errorf("unsupported time range %q", days)
	}
	v.mu.Lock()
	v.defaultDays = days
	v.mu.Unlock()
	return nil
}

// Load navigates to coin id. The detail record and the default chart are
// fetched concurrently; if either fails the whole view fails and nothing of
// the other is shown. A later Load supersedes an earlier one still in flight.
func (v *DetailView) Load(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	currency := v.session.Currency()

	v.mu.Lock()
	v.generation++
	gen := v.generation
	v.status = StatusLoading
	v.errMsg = ""
	v.id = id
	v.currency = currency
	v.coin = nil
	v.chart = nil
	v.days = v.defaultDays
	days := v.defaultDays
	v.mu.Unlock()

	if id == "" {
		v.finish(gen, nil, nil, domain.ErrNotFound)
		return fmt.Errorf("load coin: %w", domain.ErrNotFound)
	}

	var (
		coin   *domain.CoinDetail
		series *domain.ChartSeries
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		coin, err = v.provider.FetchCoinData(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		series, err = v.provider.FetchCoinChartData(gctx, id, currency, days)
		return err
	})
	err := g.Wait()

	v.finish(gen, coin, series, err)
	if err != nil {
		return fmt.Errorf("load coin %s: %w", id, err)
	}
	return nil
}

func (v *DetailView) finish(gen uint64, coin *domain.CoinDetail, series *domain.ChartSeries, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation {
		v.logger.Debug("Discarding superseded coin load", zap.String("id", v.id))
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		v.status = StatusNotFound
		v.errMsg = "Coin not found"
		v.logger.Info("Coin not found", zap.String("id", v.id))
	case err != nil:
		v.status = StatusError
		v.errMsg = detailErrorMessage
		v.logger.Error("Failed to load coin data", zap.String("id", v.id), zap.Error(err))
	case coin == nil:
		v.status = StatusNotFound
		v.errMsg = "Coin not found"
	default:
		v.status = StatusReady
		v.coin = coin
		if series != nil {
			v.chart = series.Prices
		}
	}
}

// ChangeRange re-fetches only the chart of the current coin for a new window.
// A failure is logged and leaves the rendered view untouched.
func (v *DetailView) ChangeRange(ctx context.Context, days string) error {
	if !domain.ValidTimeRange(days) {
		return fmt.Errorf("unsupported time range %q", days)
	}

	v.mu.Lock()
	if v.status != StatusReady {
		v.mu.Unlock()
		return fmt.Errorf("change range: no coin loaded")
	}
	gen := v.generation
	id, currency := v.id, v.currency
	v.mu.Unlock()

	series, err := v.provider.FetchCoinChartData(ctx, id, currency, days)
	if err != nil {
		v.logger.Warn("Failed to update chart", zap.String("id", id), zap.String("days", days), zap.Error(err))
		return fmt.Errorf("change range: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation {
		return nil
	}
	v.chart = series.Prices
	v.days = days
	return nil
}

// Current returns the id of the coin on screen.
func (v *DetailView) Current() (string, ViewStatus) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.id, v.status
}

func (v *DetailView) Snapshot() DetailSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	chart := make([]domain.ChartPoint, len(v.chart))
	copy(chart, v.chart)
	return DetailSnapshot{
		Status:   v.status,
		Error:    v.errMsg,
		ID:       v.id,
		Coin:     v.coin,
		Chart:    chart,
		Days:     v.days,
		Currency: v.currency,
		Rising:   domain.Rising(chart),
	}
}

package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vitos/cryptomaniac/internal/domain"
	"github.com/vitos/cryptomaniac/internal/infrastructure/metrics"
)

type ViewStatus string

const (
	StatusLoading  ViewStatus = "loading"
	StatusReady    ViewStatus = "ready"
	StatusError    ViewStatus = "error"
	StatusNotFound ViewStatus = "not_found"
)

const (
	DefaultPollInterval = 30 * time.Second

	// listPages is how many pages the pager offers.
	listPages = 10

	listErrorMessage = "Failed to load cryptocurrency data"
)

// ListSnapshot is a rendered-ready copy of the listing view state.
type ListSnapshot struct {
	Status         ViewStatus             `json:"status"`
	Error          string                 `json:"error,omitempty"`
	Currency       string                 `json:"currency"`
	Page           int                    `json:"page"`
	Pages          int                    `json:"pages"`
	Sort           domain.SortConfig      `json:"sort"`
	Listings       []domain.MarketListing `json:"listings"`
	Favorites      map[string]bool        `json:"favorites"`
	TotalCoins     int                    `json:"total_coins"`
	TotalMarketCap float64                `json:"total_market_cap"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// ListView polls the market listings endpoint and holds the last result set.
type ListView struct {
	provider domain.MarketDataProvider
	session  *Session
	logger   *zap.Logger
	interval time.Duration
	errLog   *rate.Limiter

	mu         sync.Mutex
	status     ViewStatus
	errMsg     string
	listings   []domain.MarketListing
	sortCfg    domain.SortConfig
	page       int
	updatedAt  time.Time
	generation uint64
	timeNow    func() time.Time // For testing

	subMu   sync.Mutex
	subs    map[int]chan ListSnapshot
	nextSub int

	taskMu sync.Mutex
	parent context.Context
	task   *pollTask
}

// pollTask is the running poll loop. release cancels it and waits for the
// loop to exit; only the first call has any effect.
type pollTask struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (t *pollTask) release() {
	t.once.Do(func() {
		t.cancel()
		<-t.done
	})
}

func NewListView(provider domain.MarketDataProvider, session *Session, interval time.Duration, logger *zap.Logger) *ListView {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &ListView{
		provider: provider,
		session:  session,
		logger:   logger,
		interval: interval,
		errLog:   rate.NewLimiter(rate.Every(5*time.Minute), 1),
		status:   StatusLoading,
		sortCfg:  domain.DefaultSortConfig(),
		page:     1,
		timeNow:  time.Now,
		subs:     make(map[int]chan ListSnapshot),
	}
}

// Start fetches immediately and then every poll interval until Stop is called
// or ctx is done. Calling Start on a running view does nothing.
func (v *ListView) Start(ctx context.Context) {
	v.taskMu.Lock()
	defer v.taskMu.Unlock()
	if v.task != nil {
		return
	}
	v.parent = ctx
	v.startLocked()
}

// Stop cancels the poll loop and waits for it to exit. No fetch is issued by
// the loop after Stop returns.
func (v *ListView) Stop() {
	v.taskMu.Lock()
	defer v.taskMu.Unlock()
	v.stopLocked()
}

func (v *ListView) startLocked() {
	ctx, cancel := context.WithCancel(v.parent)
	task := &pollTask{cancel: cancel, done: make(chan struct{})}
	v.task = task
	go v.run(ctx, task.done)
}

func (v *ListView) stopLocked() {
	if v.task == nil {
		return
	}
	v.task.release()
	v.task = nil
}

// restart re-arms a running poll loop so that a parameter change fetches
// immediately and the next tick is a full interval away.
func (v *ListView) restart() {
	v.taskMu.Lock()
	defer v.taskMu.Unlock()
	if v.task == nil {
		return
	}
	v.stopLocked()
	v.startLocked()
}

func (v *ListView) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	v.Refresh(ctx)

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.Refresh(ctx)
		}
	}
}

// Refresh fetches the current page once. It is also the retry action of the
// error state. Responses of superseded fetches are dropped.
func (v *ListView) Refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	currency := v.session.Currency()

	v.mu.Lock()
	v.generation++
	gen := v.generation
	page := v.page
	prevStatus := v.status
	v.status = StatusLoading
	v.mu.Unlock()
	v.broadcast()

	listings, err := v.provider.FetchMarketData(ctx, currency, page)
	if ctx.Err() != nil {
		// abandoned in flight: put back what was shown before
		v.mu.Lock()
		restored := gen == v.generation
		if restored {
			v.status = prevStatus
		}
		v.mu.Unlock()
		if restored {
			v.broadcast()
		}
		return ctx.Err()
	}

	v.mu.Lock()
	if gen != v.generation {
		v.mu.Unlock()
		v.logger.Debug("Discarding superseded market fetch",
			zap.String("currency", currency), zap.Int("page", page))
		return nil
	}
	if err != nil {
		v.status = StatusError
		v.errMsg = listErrorMessage
		v.mu.Unlock()

		if v.errLog.Allow() {
			v.logger.Error("Failed to load market data", zap.String("currency", currency), zap.Error(err))
		} else {
			v.logger.Debug("Failed to load market data", zap.String("currency", currency), zap.Error(err))
		}
		v.broadcast()
		return fmt.Errorf("refresh listings: %w", err)
	}

	v.listings = listings
	v.status = StatusReady
	v.errMsg = ""
	v.updatedAt = v.timeNow()
	v.mu.Unlock()

	metrics.ListingsGauge.Set(float64(len(listings)))
	v.broadcast()
	return nil
}

// SetCurrency switches the shared vs_currency and, when it changed, re-fetches
// right away.
func (v *ListView) SetCurrency(code string) error {
	changed, err := v.session.SetCurrency(code)
	if err != nil {
		return err
	}
	if changed {
		v.logger.Info("Currency changed", zap.String("currency", v.session.Currency()))
		v.restart()
	}
	return nil
}

func (v *ListView) SetPage(page int) error {
	if page < 1 || page > listPages {
		return fmt.Errorf("page %d out of range 1..%d", page, listPages)
	}
	v.mu.Lock()
	changed := v.page != page
	v.page = page
	v.mu.Unlock()
	if changed {
		v.restart()
	}
	return nil
}

// SortBy applies a column header click. It never triggers a fetch.
func (v *ListView) SortBy(key string) error {
	k, err := domain.ParseSortKey(key)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.sortCfg = v.sortCfg.Toggle(k)
	v.mu.Unlock()
	v.broadcast()
	return nil
}

// ToggleFavorite marks or unmarks a coin and pushes the new state.
func (v *ListView) ToggleFavorite(id string) bool {
	fav := v.session.ToggleFavorite(id)
	v.broadcast()
	return fav
}

func (v *ListView) Snapshot() ListSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	favorites := make(map[string]bool)
	for _, id := range v.session.Favorites() {
		favorites[id] = true
	}

	return ListSnapshot{
		Status:         v.status,
		Error:          v.errMsg,
		Currency:       v.session.Currency(),
		Page:           v.page,
		Pages:          listPages,
		Sort:           v.sortCfg,
		Listings:       SortListings(v.listings, v.sortCfg),
		Favorites:      favorites,
		TotalCoins:     len(v.listings),
		TotalMarketCap: TotalMarketCap(v.listings),
		UpdatedAt:      v.updatedAt,
	}
}

// Subscribe returns a stream of snapshots, one per state change. Slow readers
// only see the latest snapshot. The returned func unsubscribes and closes the
// channel.
func (v *ListView) Subscribe() (<-chan ListSnapshot, func()) {
	ch := make(chan ListSnapshot, 1)

	v.subMu.Lock()
	id := v.nextSub
	v.nextSub++
	v.subs[id] = ch
	v.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			v.subMu.Lock()
			delete(v.subs, id)
			close(ch)
			v.subMu.Unlock()
		})
	}
}

func (v *ListView) broadcast() {
	v.subMu.Lock()
	defer v.subMu.Unlock()
	if len(v.subs) == 0 {
		return
	}

	snap := v.Snapshot()
	for _, ch := range v.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

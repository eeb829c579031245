package usecase

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/vitos/cryptomaniac/internal/domain"
)

const (
	DefaultSearchDebounce  = 300 * time.Millisecond
	DefaultSearchMinLength = 2
)

// SearchSnapshot is the state of the search box and its dropdown.
// Seq orders snapshots that may be delivered from different goroutines.
type SearchSnapshot struct {
	Seq     uint64                `json:"seq"`
	Query   string                `json:"query"`
	Results []domain.SearchResult `json:"results"`
	Open    bool                  `json:"open"`
	Loading bool                  `json:"loading"`
}

type SearchConfig struct {
	Debounce  time.Duration
	MinLength int
	// Limit caps the dropdown size; zero keeps whatever the provider returns.
	Limit int
}

// SearchSession is one search-as-you-type box. Input is debounced, and only
// the response for the latest input is ever applied: every input bumps seq and
// responses carrying an older seq are dropped.
type SearchSession struct {
	provider  domain.MarketDataProvider
	logger    *zap.Logger
	debouncer *Debouncer
	minLength int
	limit     int

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	seq     uint64
	query   string
	results []domain.SearchResult
	open    bool
	loading bool

	onSelect func(domain.SearchResult)
	onUpdate func(SearchSnapshot)
}

// NewSearchSession creates a session bound to ctx. onSelect receives the chosen
// coin; onUpdate, if set, receives every state change. Both run outside the
// session lock.
func NewSearchSession(
	ctx context.Context,
	provider domain.MarketDataProvider,
	cfg SearchConfig,
	onSelect func(domain.SearchResult),
	onUpdate func(SearchSnapshot),
	logger *zap.Logger,
) *SearchSession {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultSearchDebounce
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultSearchMinLength
	}
	ctx, cancel := context.WithCancel(ctx)
	return &SearchSession{
		provider:  provider,
		logger:    logger,
		debouncer: NewDebouncer(cfg.Debounce),
		minLength: cfg.MinLength,
		limit:     cfg.Limit,
		ctx:       ctx,
		cancel:    cancel,
		onSelect:  onSelect,
		onUpdate:  onUpdate,
	}
}

// Input records a keystroke and schedules a search once typing pauses.
func (s *SearchSession) Input(query string) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.query = query
	if s.searchable(query) {
		s.loading = true
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	s.debouncer.Trigger(func() { s.run(seq, query) })
}

func (s *SearchSession) searchable(query string) bool {
	return utf8.RuneCountInString(query) >= s.minLength
}

func (s *SearchSession) run(seq uint64, query string) {
	s.mu.Lock()
	if seq != s.seq {
		// a later keystroke already rescheduled the search
		s.mu.Unlock()
		return
	}
	if !s.searchable(query) {
		s.results = nil
		s.open = false
		s.loading = false
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		return
	}
	s.mu.Unlock()

	results, err := s.provider.SearchCoins(s.ctx, query)

	s.mu.Lock()
	if seq != s.seq || s.ctx.Err() != nil {
		s.mu.Unlock()
		s.logger.Debug("Discarding stale search response", zap.String("query", query))
		return
	}
	s.loading = false
	if err != nil {
		s.results = nil
		s.open = false
		snap := s.snapshotLocked()
		s.mu.Unlock()

		s.logger.Warn("Search failed", zap.String("query", query), zap.Error(err))
		s.notify(snap)
		return
	}
	if s.limit > 0 && len(results) > s.limit {
		results = results[:s.limit]
	}
	s.results = results
	s.open = true
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Select picks a result by id. The box is cleared and the parent notified.
// It reports false if id is not among the current results.
func (s *SearchSession) Select(id string) bool {
	s.mu.Lock()
	var picked *domain.SearchResult
	for i := range s.results {
		if s.results[i].ID == id {
			r := s.results[i]
			picked = &r
			break
		}
	}
	if picked == nil {
		s.mu.Unlock()
		return false
	}
	s.resetLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.debouncer.Cancel()
	s.notify(snap)
	if s.onSelect != nil {
		s.onSelect(*picked)
	}
	return true
}

// Clear empties the box without selecting anything.
func (s *SearchSession) Clear() {
	s.mu.Lock()
	s.resetLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.debouncer.Cancel()
	s.notify(snap)
}

func (s *SearchSession) resetLocked() {
	s.seq++
	s.query = ""
	s.results = nil
	s.open = false
	s.loading = false
}

// Close drops any pending search and cancels an in-flight request.
func (s *SearchSession) Close() {
	s.debouncer.Cancel()
	s.cancel()
}

func (s *SearchSession) Snapshot() SearchSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *SearchSession) snapshotLocked() SearchSnapshot {
	results := make([]domain.SearchResult, len(s.results))
	copy(results, s.results)
	return SearchSnapshot{
		Seq:     s.seq,
		Query:   s.query,
		Results: results,
		Open:    s.open,
		Loading: s.loading,
	}
}

func (s *SearchSession) notify(snap SearchSnapshot) {
	if s.onUpdate != nil {
		s.onUpdate(snap)
	}
}

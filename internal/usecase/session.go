package usecase

import (
	"sort"
	"sync"

	"github.com/vitos/cryptomaniac/internal/domain"
)

// Session is the dashboard state shared by every view: the selected
// vs_currency and the set of favorite coin ids. Nothing is persisted.
type Session struct {
	mu              sync.RWMutex
	defaultCurrency string
	currency        string
	favorites       map[string]struct{}
}

// NewSession initializes a session. An unsupported default falls back to usd.
func NewSession(defaultCurrency string) *Session {
	code, err := domain.NormalizeCurrency(defaultCurrency)
	if err != nil {
		code = "usd"
	}
	s := &Session{defaultCurrency: code}
	s.Reset()
	return s
}

// Reset restores the initial currency and clears favorites.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currency = s.defaultCurrency
	s.favorites = make(map[string]struct{})
}

func (s *Session) Currency() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currency
}

// SetCurrency switches the vs_currency. It reports whether the value changed.
func (s *Session) SetCurrency(code string) (bool, error) {
	normalized, err := domain.NormalizeCurrency(code)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.currency != normalized
	s.currency = normalized
	return changed, nil
}

// ToggleFavorite flips id in the favorite set and returns the new state.
func (s *Session) ToggleFavorite(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.favorites[id]; ok {
		delete(s.favorites, id)
		return false
	}
	s.favorites[id] = struct{}{}
	return true
}

func (s *Session) IsFavorite(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.favorites[id]
	return ok
}

// Favorites returns the favorite ids in lexical order.
func (s *Session) Favorites() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.favorites))
	for id := range s.favorites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/vitos/cryptomaniac/internal/domain"
	"github.com/vitos/cryptomaniac/internal/usecase"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, domain.ErrNotFound) {
		status = http.StatusNotFound
	}
	s.writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
}

func (s *Server) handleMarketsJSON(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.list.Snapshot())
}

func (s *Server) handleCoinJSON(w http.ResponseWriter, r *http.Request) {
	coin, err := s.provider.FetchCoinData(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, coin)
}

func (s *Server) handleCoinChartJSON(w http.ResponseWriter, r *http.Request) {
	days := r.URL.Query().Get("days")
	if days == "" {
		days = domain.DefaultChartDays
	}
	if !domain.ValidTimeRange(days) {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported range"})
		return
	}
	currency := s.session.Currency()
	if c := r.URL.Query().Get("currency"); c != "" {
		code, err := domain.NormalizeCurrency(c)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		currency = code
	}

	series, err := s.provider.FetchCoinChartData(r.Context(), r.PathValue("id"), currency, days)
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, series)
}

// handleSearchJSON is the one-shot form of the search box: no debounce, same
// minimum length and result cap.
func (s *Server) handleSearchJSON(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	minLength := s.searchCfg.MinLength
	if minLength <= 0 {
		minLength = usecase.DefaultSearchMinLength
	}
	if utf8.RuneCountInString(q) < minLength {
		s.writeJSON(w, http.StatusOK, []domain.SearchResult{})
		return
	}

	results, err := s.provider.SearchCoins(r.Context(), q)
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	if s.searchCfg.Limit > 0 && len(results) > s.searchCfg.Limit {
		results = results[:s.searchCfg.Limit]
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	s.writeJSON(w, http.StatusOK, results)
}

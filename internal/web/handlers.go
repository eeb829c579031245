package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/vitos/cryptomaniac/internal/domain"
	"github.com/vitos/cryptomaniac/internal/usecase"
)

type messagePage struct {
	Message string
	Retry   string
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("Template error", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// backToList answers a listing form post.
func backToList(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index.html", s.list.Snapshot())
}

func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	if err := s.list.SortBy(r.PathValue("key")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	backToList(w, r)
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	s.list.ToggleFavorite(r.PathValue("id"))
	backToList(w, r)
}

func (s *Server) handleCurrency(w http.ResponseWriter, r *http.Request) {
	if err := s.list.SetCurrency(r.FormValue("currency")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	backToList(w, r)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.FormValue("page"))
	if err != nil {
		http.Error(w, "invalid page", http.StatusBadRequest)
		return
	}
	if err := s.list.SetPage(page); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	backToList(w, r)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	// failures are logged and shown by the listing itself
	_ = s.list.Refresh(context.WithoutCancel(r.Context()))
	backToList(w, r)
}

// handleCoin opens a coin page. With ?range= on the coin already on screen
// only the chart is re-fetched.
func (s *Server) handleCoin(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	days := r.URL.Query().Get("range")
	// the detail view is shared, so a client hanging up must not fail it for others
	ctx := context.WithoutCancel(r.Context())

	current, status := s.detail.Current()
	if days == "" || current != id || status != usecase.StatusReady {
		_ = s.detail.Load(ctx, id)
	}
	if days != "" && domain.ValidTimeRange(days) && s.detail.Snapshot().Days != days {
		_ = s.detail.ChangeRange(ctx, days)
	}

	snap := s.detail.Snapshot()
	switch snap.Status {
	case usecase.StatusReady:
		s.render(w, http.StatusOK, "coin.html", snap)
	case usecase.StatusNotFound:
		s.render(w, http.StatusNotFound, "not_found.html", messagePage{Message: snap.Error})
	default:
		s.render(w, http.StatusBadGateway, "not_found.html", messagePage{Message: snap.Error, Retry: r.URL.Path})
	}
}

func (s *Server) handleCoinChart(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	days := r.URL.Query().Get("range")
	if days == "" {
		days = domain.DefaultChartDays
	}
	if !domain.ValidTimeRange(days) {
		http.Error(w, "unsupported range", http.StatusBadRequest)
		return
	}

	snap := s.detail.Snapshot()
	points, currency := snap.Chart, snap.Currency
	if snap.ID != id || snap.Status != usecase.StatusReady || snap.Days != days {
		currency = s.session.Currency()
		series, err := s.provider.FetchCoinChartData(r.Context(), id, currency, days)
		if err != nil {
			s.writeUpstreamError(w, err)
			return
		}
		points = series.Prices
	}

	var buf bytes.Buffer
	if err := renderPriceChart(&buf, points, currency); err != nil {
		if errors.Is(err, errNotEnoughPoints) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		s.logger.Error("Failed to render chart", zap.String("id", id), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	buf.WriteTo(w)
}

func (s *Server) writeUpstreamError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "Coin not found", http.StatusNotFound)
		return
	}
	http.Error(w, "Upstream unavailable", http.StatusBadGateway)
}

package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vitos/cryptomaniac/internal/domain"
	"github.com/vitos/cryptomaniac/internal/usecase"
)

type Server struct {
	router    *http.ServeMux
	server    *http.Server
	provider  domain.MarketDataProvider
	session   *usecase.Session
	list      *usecase.ListView
	detail    *usecase.DetailView
	searchCfg usecase.SearchConfig
	upgrader  websocket.Upgrader
	logger    *zap.Logger
}

func NewServer(
	port int,
	provider domain.MarketDataProvider,
	session *usecase.Session,
	list *usecase.ListView,
	detail *usecase.DetailView,
	searchCfg usecase.SearchConfig,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:    http.NewServeMux(),
		provider:  provider,
		session:   session,
		list:      list,
		detail:    detail,
		searchCfg: searchCfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	// Listing
	s.router.HandleFunc("GET /{$}", s.handleIndex)
	s.router.HandleFunc("POST /sort/{key}", s.handleSort)
	s.router.HandleFunc("POST /favorites/{id}", s.handleToggleFavorite)
	s.router.HandleFunc("POST /currency", s.handleCurrency)
	s.router.HandleFunc("POST /page", s.handlePage)
	s.router.HandleFunc("POST /retry", s.handleRetry)

	// Coin page
	s.router.HandleFunc("GET /coin/{id}", s.handleCoin)
	s.router.HandleFunc("GET /coin/{id}/chart.png", s.handleCoinChart)

	// JSON
	s.router.HandleFunc("GET /api/markets", s.handleMarketsJSON)
	s.router.HandleFunc("GET /api/coins/{id}", s.handleCoinJSON)
	s.router.HandleFunc("GET /api/coins/{id}/chart", s.handleCoinChartJSON)
	s.router.HandleFunc("GET /api/search", s.handleSearchJSON)

	// Live updates
	s.router.HandleFunc("GET /ws/markets", s.handleMarketsWS)
	s.router.HandleFunc("GET /ws/search", s.handleSearchWS)

	s.router.Handle("GET /metrics", promhttp.Handler())
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

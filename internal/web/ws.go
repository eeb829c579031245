package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vitos/cryptomaniac/internal/domain"
	"github.com/vitos/cryptomaniac/internal/infrastructure/metrics"
	"github.com/vitos/cryptomaniac/internal/usecase"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// searchRequest is a message from the search box: either a keystroke or a
// click on a dropdown entry.
type searchRequest struct {
	Query  *string `json:"query,omitempty"`
	Select string  `json:"select,omitempty"`
}

type navigateMessage struct {
	Navigate string `json:"navigate"`
}

func (s *Server) upgrade(w http.ResponseWriter, r *http.Request, stream string) (*websocket.Conn, *zap.Logger, bool) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", zap.String("stream", stream), zap.Error(err))
		return nil, nil, false
	}
	log := s.logger.With(zap.String("stream", stream), zap.String("conn", uuid.NewString()))
	log.Debug("Websocket connected")
	metrics.WebsocketClientsGauge.WithLabelValues(stream).Inc()
	return conn, log, true
}

// readLoop consumes client frames until the connection breaks, then cancels.
// onMessage may be nil for push-only streams.
func readLoop(conn *websocket.Conn, cancel context.CancelFunc, onMessage func([]byte)) {
	defer cancel()
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if onMessage != nil {
			onMessage(data)
		}
	}
}

// writeLoop is the only writer on conn. It sends every value from out and
// keeps the connection alive with pings until ctx is done.
func writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan interface{}, log *zap.Logger) {
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg, ok := <-out:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("Websocket write failed", zap.Error(err))
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMarketsWS pushes a listing snapshot on every state change.
func (s *Server) handleMarketsWS(w http.ResponseWriter, r *http.Request) {
	const stream = "markets"
	conn, log, ok := s.upgrade(w, r, stream)
	if !ok {
		return
	}
	defer metrics.WebsocketClientsGauge.WithLabelValues(stream).Dec()
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go readLoop(conn, cancel, nil)

	updates, unsubscribe := s.list.Subscribe()
	defer unsubscribe()

	out := make(chan interface{}, 1)
	out <- s.list.Snapshot()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-updates:
				if !ok {
					return
				}
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	writeLoop(ctx, conn, out, log)
	log.Debug("Websocket disconnected")
}

// handleSearchWS runs one debounced search box per connection.
func (s *Server) handleSearchWS(w http.ResponseWriter, r *http.Request) {
	const stream = "search"
	conn, log, ok := s.upgrade(w, r, stream)
	if !ok {
		return
	}
	defer metrics.WebsocketClientsGauge.WithLabelValues(stream).Dec()
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	out := make(chan interface{}, 16)
	push := func(msg interface{}) {
		select {
		case out <- msg:
		case <-ctx.Done():
		}
	}

	session := usecase.NewSearchSession(ctx, s.provider, s.searchCfg,
		func(picked domain.SearchResult) {
			push(navigateMessage{Navigate: "/coin/" + picked.ID})
		},
		func(snap usecase.SearchSnapshot) {
			push(snap)
		},
		log)
	defer session.Close()

	go readLoop(conn, cancel, func(data []byte) {
		var req searchRequest
		if err := json.Unmarshal(data, &req); err != nil {
			log.Debug("Ignoring malformed search message", zap.Error(err))
			return
		}
		switch {
		case req.Select != "":
			session.Select(req.Select)
		case req.Query != nil:
			session.Input(*req.Query)
		}
	})

	writeLoop(ctx, conn, out, log)
	log.Debug("Websocket disconnected")
}

package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/perfstore/internal/bucket"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = livePongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Live serves GET /live/{category}: a websocket that pushes the current
// minute's summary every LiveInterval until the client goes away.
func (s *Server) Live(w http.ResponseWriter, r *http.Request) {
	category, ok := s.category(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		log.Warn().Err(err).Str("category", category).Msg("Live upgrade failed")
		return
	}
	defer conn.Close()

	s.metrics.LiveClients.Inc()
	defer s.metrics.LiveClients.Dec()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go s.liveReadPump(conn, cancel)

	interval := s.config.LiveInterval
	if interval <= 0 {
		interval = DefaultServerConfig().LiveInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	pinger := time.NewTicker(livePingPeriod)
	defer pinger.Stop()

	log.Info().Str("category", category).Str("request_id", requestIDFrom(r.Context())).Msg("Live client connected")

	if err := s.pushMinute(ctx, conn, category); err != nil {
		log.Debug().Err(err).Str("category", category).Msg("Live client dropped")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-pinger.C:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.pushMinute(ctx, conn, category); err != nil {
				log.Debug().Err(err).Str("category", category).Msg("Live client dropped")
				return
			}
		}
	}
}

func (s *Server) pushMinute(ctx context.Context, conn *websocket.Conn, category string) error {
	now := bucket.Now()
	minute, err := s.reporter.Minute(ctx, category, now)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// keep the socket open; the next tick may succeed
		log.Warn().Err(err).Str("category", category).Msg("Live minute report failed")
		return nil
	}

	_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	return conn.WriteJSON(LiveFrame{
		Timestamp: now.UTC(),
		Category:  category,
		Minute:    minute,
	})
}

// liveReadPump drains client frames so pongs and close messages are handled,
// and cancels the writer once the connection fails.
func (s *Server) liveReadPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("Live read failed")
			}
			return
		}
	}
}

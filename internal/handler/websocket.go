package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"asser-platform/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// TimerMessage is one frame of the timer stream.
type TimerMessage struct {
	Type string            `json:"type"`
	Data service.TimerSync `json:"data"`
}

// TimerStream pushes the running game's countdown to websocket clients.
type TimerStream struct {
	games    *service.GameService
	interval time.Duration
	upgrader websocket.Upgrader
}

// NewTimerStream creates a TimerStream that sends a frame every interval.
func NewTimerStream(games *service.GameService, interval time.Duration) *TimerStream {
	if interval <= 0 {
		interval = time.Second
	}
	return &TimerStream{
		games:    games,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Serve handles GET /games/ws. Clients only receive; anything they send is
// discarded apart from control frames.
func (s *TimerStream) Serve(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to upgrade timer stream")
		return
	}
	defer conn.Close()

	uid := userID(c)
	log.Debug().Int64("user_id", uid).Msg("Timer stream opened")

	done := make(chan struct{})
	go s.readLoop(conn, done)

	ctx := c.Request.Context()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	if !s.push(ctx, conn) {
		return
	}
	for {
		select {
		case <-done:
			log.Debug().Int64("user_id", uid).Msg("Timer stream closed")
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-ticker.C:
			if !s.push(ctx, conn) {
				return
			}
		}
	}
}

// push writes the current countdown and reports whether the connection is
// still usable.
func (s *TimerStream) push(ctx context.Context, conn *websocket.Conn) bool {
	sync, err := s.games.TimerSync(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read timer for stream")
		return true
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(TimerMessage{Type: "TIMER_SYNC", Data: sync}); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
			log.Debug().Err(err).Msg("Timer stream write failed")
		}
		return false
	}
	return true
}

func (s *TimerStream) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

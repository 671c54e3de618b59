package ws

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"oneten-service/internal/notify"
	"oneten-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Handler relays game-state broadcasts to viewers. It carries no game
// logic: every message it sends is a verbatim Redis pub/sub payload for the
// game's channel.
type Handler struct {
	rdb *redis.Client
}

func NewHandler(rdb *redis.Client) *Handler {
	return &Handler{rdb: rdb}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

func (h *Handler) HandleGameWS(c *gin.Context) {
	gameIDStr := c.Param("gameId")
	gameID, err := strconv.ParseInt(gameIDStr, 10, 64)
	if err != nil || gameID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid game id"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	connID := uuid.NewString()
	logger.Log.Info("New WebSocket connection",
		zap.Int64("gameID", gameID),
		zap.String("connID", connID),
	)

	sub := h.rdb.Subscribe(context.Background(), notify.Channel(gameID))
	client := newClient(conn, connID, gameID, sub)
	client.run()
}

type client struct {
	conn      *websocket.Conn
	connID    string
	gameID    int64
	sub       *redis.PubSub
	done      chan struct{}
	pingEvery time.Duration
}

func newClient(conn *websocket.Conn, connID string, gameID int64, sub *redis.PubSub) *client {
	conn.SetReadLimit(1 << 16)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	return &client{
		conn:      conn,
		connID:    connID,
		gameID:    gameID,
		sub:       sub,
		done:      make(chan struct{}),
		pingEvery: 25 * time.Second,
	}
}

func (c *client) run() {
	go c.writePump()
	c.readPump()
}

// readPump drains and discards inbound frames. Viewers act through the HTTP
// API; the socket exists for the server-to-client direction only.
func (c *client) readPump() {
	defer func() {
		close(c.done)
		c.sub.Close()
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			logger.Log.Info("WS read error",
				zap.Error(err),
				zap.String("connID", c.connID),
				zap.Int64("gameID", c.gameID),
			)
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.pingEvery)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	ch := c.sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				logger.Log.Info("WS write error",
					zap.Error(err),
					zap.String("connID", c.connID),
					zap.Int64("gameID", c.gameID),
				)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Notifier fans a game-state snapshot out to connected viewers. Delivery is
// best-effort: a command that changed state never fails because the broadcast
// did.
type Notifier interface {
	Publish(ctx context.Context, gameID int64, snapshot interface{})
}

// Channel returns the pub/sub channel for one game. The ws relay subscribes
// to the same name.
func Channel(gameID int64) string {
	return fmt.Sprintf("oneten:game:%d", gameID)
}

type message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Publisher sends snapshots over Redis pub/sub.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

func (p *Publisher) Publish(ctx context.Context, gameID int64, snapshot interface{}) {
	payload, err := json.Marshal(message{Type: "gameStateUpdate", Payload: snapshot})
	if err != nil {
		zap.L().Warn("failed to encode game state broadcast",
			zap.Int64("gameID", gameID),
			zap.Error(err),
		)
		return
	}
	if err := p.rdb.Publish(ctx, Channel(gameID), payload).Err(); err != nil {
		zap.L().Warn("failed to publish game state",
			zap.Int64("gameID", gameID),
			zap.Error(err),
		)
	}
}

// Nop discards every publish. Used by engine tests, which assert on state,
// not broadcasts.
type Nop struct{}

func (Nop) Publish(context.Context, int64, interface{}) {}

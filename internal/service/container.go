package service

import (
	"oneten-service/internal/notify"
	"oneten-service/internal/service/game"
	"oneten-service/internal/service/session"
	"oneten-service/internal/service/stats"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Game    *game.Service
	Session *session.Service
	Stats   *stats.Service
}

func NewContainer(db *gorm.DB, rdb *redis.Client) *Container {
	return &Container{
		Game:    game.NewService(db, notify.NewPublisher(rdb)),
		Session: session.NewService(db),
		Stats:   stats.NewService(db),
	}
}

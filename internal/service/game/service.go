package game

import (
	"context"
	"errors"
	"sync"

	"oneten-service/internal/model"
	"oneten-service/internal/notify"
	appErr "oneten-service/pkg/errors"

	"gorm.io/gorm"
)

const (
	cardsPerHand  = 5
	kittySize     = 5
	tricksInRound = 5
	trickValue    = 5
	bonusValue    = 5
	winningScore  = 110
	forfeitScore  = 85
)

var bidLadder = []int{15, 20, 25, 30}

// Service runs the rules of 110 for every game. State lives in the
// game_state blob plus the cards table; the service itself only holds the
// per-game command locks.
type Service struct {
	db       *gorm.DB
	notifier notify.Notifier
	locks    sync.Map // gameID -> *sync.Mutex
}

func NewService(db *gorm.DB, notifier notify.Notifier) *Service {
	return &Service{db: db, notifier: notifier}
}

// publish fans the updated state out to viewers, best-effort.
func (s *Service) publish(ctx context.Context, gameID int64, st *RoundState) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(ctx, gameID, st)
}

// listPlayerIDs returns the game's players in seat order (ascending id).
func (s *Service) listPlayerIDs(ctx context.Context, gameID int64) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).Model(&model.Player{}).
		Where("game_id = ?", gameID).
		Order("player_id ASC").
		Pluck("player_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Service) playerNames(ctx context.Context, gameID int64) (map[int64]string, error) {
	var players []model.Player
	err := s.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("player_id ASC").
		Find(&players).Error
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}
	return names, nil
}

func (s *Service) playerName(ctx context.Context, gameID, playerID int64) (string, error) {
	var p model.Player
	err := s.db.WithContext(ctx).
		Where("game_id = ? AND player_id = ?", gameID, playerID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", appErr.ErrPlayerNotFound
		}
		return "", err
	}
	return p.Name, nil
}

package session

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"oneten-service/internal/model"
	appErr "oneten-service/pkg/errors"
	"oneten-service/pkg/utils/random"

	"gorm.io/gorm"
)

const gameCodeLength = 6

var gameCodePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// Service manages game lifecycles and seat membership. Rule logic lives in
// the game service; this one only knows codes, games and players.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type CreateGameResult struct {
	GameID   int64  `json:"gameId"`
	PlayerID int64  `json:"playerId"`
	GameCode string `json:"gameCode"`
}

// CreateGame opens a new table with the caller as the first player and
// returns the join code.
func (s *Service) CreateGame(ctx context.Context, playerName string) (*CreateGameResult, error) {
	name := strings.TrimSpace(playerName)
	if name == "" {
		return nil, appErr.Validation("player name is required")
	}

	var result CreateGameResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		game := model.Game{Code: random.Code(gameCodeLength)}
		if err := tx.Create(&game).Error; err != nil {
			return err
		}
		player := model.Player{GameID: game.ID, Name: name}
		if err := tx.Create(&player).Error; err != nil {
			return err
		}
		result = CreateGameResult{
			GameID:   game.ID,
			PlayerID: player.ID,
			GameCode: game.Code,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

type JoinGameResult struct {
	GameID   int64 `json:"gameId"`
	PlayerID int64 `json:"playerId"`
}

// JoinGame seats a new player at the table named by gameCode.
func (s *Service) JoinGame(ctx context.Context, gameCode, playerName string) (*JoinGameResult, error) {
	name := strings.TrimSpace(playerName)
	if name == "" {
		return nil, appErr.Validation("player name is required")
	}
	code := strings.ToUpper(strings.TrimSpace(gameCode))
	if !gameCodePattern.MatchString(code) {
		return nil, appErr.Validation("invalid game code format")
	}

	var game model.Game
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&game).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrGameCodeNotFound
		}
		return nil, err
	}

	player := model.Player{GameID: game.ID, Name: name}
	if err := s.db.WithContext(ctx).Create(&player).Error; err != nil {
		return nil, err
	}
	return &JoinGameResult{GameID: game.ID, PlayerID: player.ID}, nil
}

type SessionInfo struct {
	GameID     int64  `json:"gameId"`
	PlayerID   int64  `json:"playerId"`
	GameCode   string `json:"gameCode"`
	PlayerName string `json:"playerName"`
}

// VerifySession checks that the (gameId, playerId) pair still names a seat,
// so a reloaded client can resume.
func (s *Service) VerifySession(ctx context.Context, gameID, playerID int64) (*SessionInfo, error) {
	var game model.Game
	err := s.db.WithContext(ctx).First(&game, "game_id = ?", gameID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrGameNotFound
		}
		return nil, err
	}

	var player model.Player
	err = s.db.WithContext(ctx).
		Where("game_id = ? AND player_id = ?", gameID, playerID).
		First(&player).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrPlayerNotFound
		}
		return nil, err
	}

	return &SessionInfo{
		GameID:     game.ID,
		PlayerID:   player.ID,
		GameCode:   game.Code,
		PlayerName: player.Name,
	}, nil
}

// ListPlayers returns the seats of a game in seat order.
func (s *Service) ListPlayers(ctx context.Context, gameID int64) ([]model.Player, error) {
	var players []model.Player
	err := s.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("player_id ASC").
		Find(&players).Error
	if err != nil {
		return nil, err
	}
	return players, nil
}

// ListCards returns every card row of a game.
func (s *Service) ListCards(ctx context.Context, gameID int64) ([]model.CardRow, error) {
	var cards []model.CardRow
	err := s.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("card_id ASC").
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

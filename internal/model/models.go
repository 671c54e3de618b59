package model

import (
	"time"

	"gorm.io/datatypes"
)

// Game is one table of 110, addressed by players through its join code.
type Game struct {
	ID        int64     `gorm:"column:game_id;primaryKey;autoIncrement" json:"game_id"`
	Code      string    `gorm:"size:6;uniqueIndex;not null" json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

func (Game) TableName() string {
	return "games"
}

// Player is a seat at a game. Seat order is ascending player_id, fixed at
// the first deal.
type Player struct {
	ID        int64     `gorm:"column:player_id;primaryKey;autoIncrement" json:"player_id"`
	GameID    int64     `gorm:"index;not null" json:"game_id"`
	Name      string    `gorm:"size:64;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (Player) TableName() string {
	return "players"
}

// CardRow is the authoritative location of one undealt-with card. A nil
// PlayerID marks a kitty card. Hands inside the state blob are a cache of
// these rows.
type CardRow struct {
	ID       int64  `gorm:"column:card_id;primaryKey;autoIncrement" json:"card_id"`
	GameID   int64  `gorm:"index;not null" json:"game_id"`
	PlayerID *int64 `gorm:"index" json:"player_id"`
	Card     string `gorm:"size:8;not null" json:"card"`
}

func (CardRow) TableName() string {
	return "cards"
}

// GameState holds the whole round document for a game as one JSON blob,
// overwritten atomically on every engine command.
type GameState struct {
	GameID    int64          `gorm:"column:game_id;primaryKey" json:"game_id"`
	State     datatypes.JSON `json:"state"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (GameState) TableName() string {
	return "game_state"
}

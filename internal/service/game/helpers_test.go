package game_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"oneten-service/internal/model"
	"oneten-service/internal/notify"
	"oneten-service/internal/service/game"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormFixture bundles the handles a state-driven test needs.
type gormFixture struct {
	db  *gorm.DB
	ids []int64
}

func newGameService(t *testing.T) (*gorm.DB, *game.Service) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.Game{}, &model.Player{}, &model.CardRow{}, &model.GameState{}); err != nil {
		t.Fatalf("failed to migrate models: %v", err)
	}

	return db, game.NewService(db, notify.Nop{})
}

func seedGame(t *testing.T, db *gorm.DB, playerNames ...string) (int64, []int64) {
	t.Helper()

	g := model.Game{Code: "TEST" + fmt.Sprintf("%02d", len(playerNames))}
	if err := db.Create(&g).Error; err != nil {
		t.Fatalf("seed game failed: %v", err)
	}
	ids := make([]int64, 0, len(playerNames))
	for _, name := range playerNames {
		p := model.Player{GameID: g.ID, Name: name}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("seed player failed: %v", err)
		}
		ids = append(ids, p.ID)
	}
	return g.ID, ids
}

func writeState(t *testing.T, db *gorm.DB, gameID int64, st *game.RoundState) {
	t.Helper()

	payload, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal state failed: %v", err)
	}
	row := model.GameState{GameID: gameID, State: datatypes.JSON(payload)}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		t.Fatalf("write state failed: %v", err)
	}
}

func setHand(t *testing.T, db *gorm.DB, gameID, playerID int64, cards []string) {
	t.Helper()

	for _, card := range cards {
		pid := playerID
		if err := db.Create(&model.CardRow{GameID: gameID, PlayerID: &pid, Card: card}).Error; err != nil {
			t.Fatalf("seed card row failed: %v", err)
		}
	}
}

func setKitty(t *testing.T, db *gorm.DB, gameID int64, cards []string) {
	t.Helper()

	for _, card := range cards {
		if err := db.Create(&model.CardRow{GameID: gameID, Card: card}).Error; err != nil {
			t.Fatalf("seed kitty row failed: %v", err)
		}
	}
}

func cardRows(t *testing.T, db *gorm.DB, gameID int64) []model.CardRow {
	t.Helper()

	var rows []model.CardRow
	if err := db.Where("game_id = ?", gameID).Order("card_id ASC").Find(&rows).Error; err != nil {
		t.Fatalf("read card rows failed: %v", err)
	}
	return rows
}

package game

import (
	"context"

	"oneten-service/internal/model"

	"gorm.io/gorm"
)

// The cards table is the authoritative copy of every undisposed card. The
// blob's hands are refreshed from it at phase transitions and on reads, so a
// lost broadcast can never fabricate or duplicate a card.

func (s *Service) playerCards(ctx context.Context, gameID, playerID int64) ([]string, error) {
	var cards []string
	err := s.db.WithContext(ctx).Model(&model.CardRow{}).
		Where("game_id = ? AND player_id = ?", gameID, playerID).
		Order("card_id ASC").
		Pluck("card", &cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func (s *Service) kittyCards(ctx context.Context, gameID int64) ([]string, error) {
	var cards []string
	err := s.db.WithContext(ctx).Model(&model.CardRow{}).
		Where("game_id = ? AND player_id IS NULL", gameID).
		Order("card_id ASC").
		Pluck("card", &cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// refreshHands overwrites the blob's hands from the card rows.
func (s *Service) refreshHands(ctx context.Context, gameID int64, st *RoundState) error {
	hands := make(map[int64][]string, st.seatCount())
	for _, pid := range st.SeatOrder {
		cards, err := s.playerCards(ctx, gameID, pid)
		if err != nil {
			return err
		}
		hands[pid] = cards
	}
	st.Hands = hands
	return nil
}

// replaceAllCardsTx rewrites the cards table for a fresh deal: one row per
// hand card plus the kitty rows with no owner.
func replaceAllCardsTx(tx *gorm.DB, gameID int64, st *RoundState) error {
	if err := tx.Where("game_id = ?", gameID).Delete(&model.CardRow{}).Error; err != nil {
		return err
	}
	var rows []model.CardRow
	for _, pid := range st.SeatOrder {
		pid := pid
		for _, card := range st.Hands[pid] {
			rows = append(rows, model.CardRow{GameID: gameID, PlayerID: &pid, Card: card})
		}
	}
	for _, card := range st.Kitty {
		rows = append(rows, model.CardRow{GameID: gameID, Card: card})
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}

func insertCardsTx(tx *gorm.DB, gameID, playerID int64, cards []string) error {
	if len(cards) == 0 {
		return nil
	}
	rows := make([]model.CardRow, 0, len(cards))
	for _, card := range cards {
		rows = append(rows, model.CardRow{GameID: gameID, PlayerID: &playerID, Card: card})
	}
	return tx.Create(&rows).Error
}

// deleteCardTx removes one card row from a player's hand. Deck cards are
// unique per game, so the predicate matches at most one row.
func deleteCardTx(tx *gorm.DB, gameID, playerID int64, card string) error {
	return tx.Where("game_id = ? AND player_id = ? AND card = ?", gameID, playerID, card).
		Delete(&model.CardRow{}).Error
}

func deleteKittyTx(tx *gorm.DB, gameID int64) error {
	return tx.Where("game_id = ? AND player_id IS NULL", gameID).Delete(&model.CardRow{}).Error
}

func deletePlayerCardsTx(tx *gorm.DB, gameID, playerID int64) error {
	return tx.Where("game_id = ? AND player_id = ?", gameID, playerID).Delete(&model.CardRow{}).Error
}

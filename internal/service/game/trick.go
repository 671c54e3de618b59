package game

import (
	"context"
	"strings"

	"gorm.io/gorm"

	appErr "oneten-service/pkg/errors"
)

// PlayCard plays one card into the current trick. Suit-following is checked
// against the authoritative card rows, not the blob. Trump and reneging
// cards may always be played.
func (s *Service) PlayCard(ctx context.Context, gameID, playerID int64, card string) (*RoundState, error) {
	unlock := s.lockGame(gameID)
	defer unlock()

	st, err := s.loadState(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if st.Phase != PhaseTrick {
		return nil, appErr.Rule("cards can only be played during the trick phase")
	}
	if st.CurrentTurn != playerID {
		return nil, appErr.TurnOrder("it is not your turn to play")
	}
	if !IsValidCard(card) {
		return nil, appErr.Validation("invalid card: %s", card)
	}

	hand, err := s.playerCards(ctx, gameID, playerID)
	if err != nil {
		return nil, err
	}
	if !containsCard(hand, card) {
		return nil, appErr.Validation("you don't have this card in your hand")
	}

	trump := st.TrumpSuit
	if len(st.CurrentTrick) > 0 {
		leadSuit := effectiveLeadSuit(st.CurrentTrick[0].Card, trump)
		followsLead := SuitOf(card) == leadSuit
		playsTrump := IsTrump(card, trump)
		if !followsLead && !playsTrump && MustFollowSuit(hand, leadSuit, trump, st.CurrentTrick) {
			forced := forcedFollowCards(hand, leadSuit, trump, st.CurrentTrick)
			return nil, appErr.Rule("you must follow suit with %s. You have: %s",
				suitNames[leadSuit], strings.Join(forced, ", "))
		}
	}

	// A new play supersedes the completed-trick display handshake.
	st.TrickComplete = false
	st.LastCompletedTrick = nil

	st.Hands[playerID] = removeCard(st.Hands[playerID], card)
	st.CurrentTrick = append(st.CurrentTrick, PlayedCard{PlayerID: playerID, Card: card})

	// Track the single best card of the round for the bonus.
	rank := RankValue(card, trump, trump)
	if st.HighestCardInRound == "" || rank > st.HighestCardRank {
		st.HighestCardInRound = card
		st.HighestCardPlayer = playerID
		st.HighestCardRank = rank
		st.HighestCardTrick = st.TricksPlayed + 1
	}

	if len(st.CurrentTrick) >= st.seatCount() {
		resolveTrick(st)
		if st.TricksPlayed >= tricksInRound {
			ScoreRound(st)
		}
	} else {
		st.CurrentTurn = st.leftOf(playerID)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteCardTx(tx, gameID, playerID, card); err != nil {
			return err
		}
		return saveStateTx(tx, gameID, st)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, gameID, st)
	return st, nil
}

// resolveTrick picks the winner of a full trick and hands them the lead.
func resolveTrick(st *RoundState) {
	trump := st.TrumpSuit
	leadSuit := effectiveLeadSuit(st.CurrentTrick[0].Card, trump)

	winning := st.CurrentTrick[0]
	winningRank := RankValue(winning.Card, trump, leadSuit)
	for _, pc := range st.CurrentTrick[1:] {
		if r := RankValue(pc.Card, trump, leadSuit); r > winningRank {
			winning = pc
			winningRank = r
		}
	}

	if st.TricksWon == nil {
		st.TricksWon = make(map[int64]int, st.seatCount())
	}
	st.TricksWon[winning.PlayerID]++
	st.TricksPlayed++
	st.TrickWinners = append(st.TrickWinners, TrickRecord{
		Trick:       st.TricksPlayed,
		Winner:      winning.PlayerID,
		WinningCard: winning.Card,
	})

	st.TrickComplete = true
	st.LastCompletedTrick = st.CurrentTrick
	st.LastTrickWinner = winning.PlayerID
	st.CurrentTrick = []PlayedCard{}
	st.CurrentTurn = winning.PlayerID
}

// ClearTrickComplete acknowledges the completed-trick display so clients can
// drop the face-up cards.
func (s *Service) ClearTrickComplete(ctx context.Context, gameID int64) (*RoundState, error) {
	unlock := s.lockGame(gameID)
	defer unlock()

	st, err := s.loadState(ctx, gameID)
	if err != nil {
		return nil, err
	}
	st.TrickComplete = false
	st.LastCompletedTrick = nil

	if err := s.saveState(ctx, gameID, st); err != nil {
		return nil, err
	}
	return st, nil
}

func containsCard(cards []string, card string) bool {
	for _, c := range cards {
		if c == card {
			return true
		}
	}
	return false
}

func removeCard(cards []string, card string) []string {
	out := make([]string, 0, len(cards))
	removed := false
	for _, c := range cards {
		if !removed && c == card {
			removed = true
			continue
		}
		out = append(out, c)
	}
	return out
}

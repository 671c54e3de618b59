package game

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	appErr "oneten-service/pkg/errors"
)

// DealRound shuffles a fresh 53-card deck and deals 5 cards to every seat
// plus the 5-card kitty. Scores, dealer seat and round number survive the
// deal; everything else in the blob is reset.
func (s *Service) DealRound(ctx context.Context, gameID int64) (*RoundState, error) {
	unlock := s.lockGame(gameID)
	defer unlock()

	playerIDs, err := s.listPlayerIDs(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if len(playerIDs) == 0 {
		return nil, appErr.ErrNoPlayers
	}

	st, err := s.loadState(ctx, gameID)
	if err != nil {
		if !errors.Is(err, appErr.ErrStateNotFound) {
			return nil, err
		}
		st = &RoundState{}
	}

	dealInto(st, playerIDs)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := replaceAllCardsTx(tx, gameID, st); err != nil {
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

// dealInto resets st for a new round and distributes a fresh shuffle.
func dealInto(st *RoundState, playerIDs []int64) {
	deck := NewDeck()

	st.SeatOrder = append([]int64(nil), playerIDs...)
	st.Kitty = append([]string(nil), deck[:kittySize]...)
	deck = deck[kittySize:]

	st.Hands = make(map[int64][]string, len(playerIDs))
	for _, pid := range playerIDs {
		st.Hands[pid] = append([]string(nil), deck[:cardsPerHand]...)
		deck = deck[cardsPerHand:]
	}
	st.RemainingDeck = append([]string(nil), deck...)

	st.Phase = PhaseWaiting
	st.TrumpSuit = ""
	st.BidWinnerReady = false
	st.SwapComplete = []int64{}
	st.SwapCounts = nil
	st.MaxSwapCards = maxSwapCardsFor(len(playerIDs))

	st.CurrentBid = 0
	st.CurrentBidder = 0
	st.HighestBidder = 0
	st.ValidBids = nil
	st.PassedPlayers = nil
	st.BiddingOver = false
	st.DealerMustBid = false
	st.DealerCanMatch = false
	st.ForcedDealerBid = false

	st.CurrentTurn = 0
	st.CurrentTrick = []PlayedCard{}
	st.TricksPlayed = 0
	st.TricksWon = nil
	st.TrickWinners = nil
	st.TrickComplete = false
	st.LastCompletedTrick = nil
	st.LastTrickWinner = 0

	st.HighestCardInRound = ""
	st.HighestCardPlayer = 0
	st.HighestCardRank = 0
	st.HighestCardTrick = 0

	st.RoundSummary = nil
}

// ContinueToNextRound closes the round summary. If the finished round
// produced a winner the game ends; otherwise the deal rotates and the next
// round is dealt and opened for bidding in one step.
func (s *Service) ContinueToNextRound(ctx context.Context, gameID int64) (*RoundState, error) {
	unlock := s.lockGame(gameID)
	defer unlock()

	st, err := s.loadState(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if st.Phase != PhaseRoundSummary {
		return nil, appErr.Rule("no round summary to continue from")
	}

	if winner, ok := DetermineGameWinner(st); ok {
		st.GameWinner = winner
		st.Phase = PhaseGameOver
		st.CurrentTurn = 0
		st.CurrentTrick = []PlayedCard{}
		if err := s.saveState(ctx, gameID, st); err != nil {
			return nil, err
		}
		s.publish(ctx, gameID, st)
		return st, nil
	}

	playerIDs, err := s.listPlayerIDs(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if len(playerIDs) == 0 {
		return nil, appErr.ErrNoPlayers
	}

	st.Dealer = (st.Dealer + 1) % len(playerIDs)
	st.RoundNumber++

	dealInto(st, playerIDs)
	beginBidding(st)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := replaceAllCardsTx(tx, gameID, st); err != nil {
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

// StateView is the read model for one viewer. The kitty is only visible to
// the highest bidder.
type StateView struct {
	*RoundState
	PlayerNames map[int64]string `json:"playerNames"`
	Winner      int64            `json:"winner,omitempty"`
}

// GetGameState returns the state as seen by viewerID (0 for a spectator).
// During the trick phase hands are re-read from the card rows.
func (s *Service) GetGameState(ctx context.Context, gameID, viewerID int64) (*StateView, error) {
	st, err := s.loadState(ctx, gameID)
	if err != nil {
		return nil, err
	}
	names, err := s.playerNames(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if st.Phase == PhaseTrick {
		if err := s.refreshHands(ctx, gameID, st); err != nil {
			return nil, err
		}
	}

	if st.HighestBidder != 0 && viewerID == st.HighestBidder && st.Phase == PhaseKitty {
		kitty, err := s.kittyCards(ctx, gameID)
		if err != nil {
			return nil, err
		}
		st.Kitty = kitty
	} else {
		st.Kitty = nil
	}

	view := &StateView{RoundState: st, PlayerNames: names}
	if st.GameWinner != 0 {
		view.Winner = st.GameWinner
	}
	return view, nil
}

// SendReaction stores and broadcasts a player's emoji. Pure relay, no rules.
func (s *Service) SendReaction(ctx context.Context, gameID, playerID int64, emoji string) (*RoundState, error) {
	if emoji == "" {
		return nil, appErr.Validation("emoji is required")
	}

	unlock := s.lockGame(gameID)
	defer unlock()

	name, err := s.playerName(ctx, gameID, playerID)
	if err != nil {
		return nil, err
	}
	st, err := s.loadState(ctx, gameID)
	if err != nil {
		return nil, err
	}

	st.LastReaction = &Reaction{
		PlayerID:   playerID,
		PlayerName: name,
		Emoji:      emoji,
		Timestamp:  time.Now().Unix(),
	}

	if err := s.saveState(ctx, gameID, st); err != nil {
		return nil, err
	}
	s.publish(ctx, gameID, st)
	return st, nil
}

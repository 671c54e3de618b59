package game

import (
	"context"

	"gorm.io/gorm"

	appErr "oneten-service/pkg/errors"
)

// SwapResult reports what a non-winner's swap actually did.
type SwapResult struct {
	CardsSwapped int      `json:"cardsSwapped"`
	NewHand      []string `json:"newHand"`
	PhaseChanged bool     `json:"phaseChanged"`
	State        *RoundState
}

// SelectKittyAndTrump lets the bid winner merge the kitty into their hand,
// keep exactly five cards and declare trump. The ten-card pool minus the
// kept five is discarded for the round.
func (s *Service) SelectKittyAndTrump(ctx context.Context, gameID, playerID int64, keptCards []string, trumpSuit string) (*RoundState, error) {
	unlock := s.lockGame(gameID)
	defer unlock()

	st, err := s.loadState(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if st.Phase != PhaseKitty {
		return nil, appErr.Rule("kitty selection is only allowed during the kitty phase")
	}
	if st.HighestBidder != playerID {
		return nil, appErr.Rule("only the highest bidder may take the kitty")
	}
	if len(keptCards) != cardsPerHand {
		return nil, appErr.Validation("you must keep exactly %d cards", cardsPerHand)
	}

	suit, err := NormalizeTrumpSuit(trumpSuit)
	if err != nil {
		return nil, err
	}

	hand, err := s.playerCards(ctx, gameID, playerID)
	if err != nil {
		return nil, err
	}
	kitty, err := s.kittyCards(ctx, gameID)
	if err != nil {
		return nil, err
	}

	// Every kept card must come from the hand+kitty pool, without duplicates.
	pool := make(map[string]int, len(hand)+len(kitty))
	for _, c := range hand {
		pool[c]++
	}
	for _, c := range kitty {
		pool[c]++
	}
	for _, c := range keptCards {
		if pool[c] == 0 {
			return nil, appErr.Validation("card %s is not in your hand or the kitty", c)
		}
		pool[c]--
	}

	st.TrumpSuit = suit
	st.BidWinnerReady = true
	st.Hands[playerID] = append([]string(nil), keptCards...)
	st.Kitty = nil

	st.maybeStartTrickPhase()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteKittyTx(tx, gameID); err != nil {
			return err
		}
		if err := deletePlayerCardsTx(tx, gameID, playerID); err != nil {
			return err
		}
		if err := insertCardsTx(tx, gameID, playerID, keptCards); err != nil {
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

// SwapCards lets a non-winner discard up to maxSwapCards and draw
// replacements from the remaining deck, once per round.
func (s *Service) SwapCards(ctx context.Context, gameID, playerID int64, discard []string) (*SwapResult, error) {
	unlock := s.lockGame(gameID)
	defer unlock()

	st, err := s.loadState(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if st.Phase != PhaseKitty {
		return nil, appErr.Rule("card swapping is only allowed during the kitty phase")
	}
	if st.HighestBidder == playerID {
		return nil, appErr.Rule("the bid winner exchanges through the kitty, not the swap")
	}
	if st.hasSwapped(playerID) {
		return nil, appErr.Rule("you have already completed your card swap")
	}

	maxSwap := st.MaxSwapCards
	if maxSwap == 0 {
		maxSwap = maxSwapCardsFor(st.seatCount())
	}
	if len(discard) > maxSwap {
		return nil, appErr.Rule("you can swap at most %d cards", maxSwap)
	}

	hand, err := s.playerCards(ctx, gameID, playerID)
	if err != nil {
		return nil, err
	}
	remaining := make(map[string]int, len(hand))
	for _, c := range hand {
		remaining[c]++
	}
	for _, c := range discard {
		if remaining[c] == 0 {
			return nil, appErr.Validation("you don't have card: %s", c)
		}
		remaining[c]--
	}
	if len(st.RemainingDeck) < len(discard) {
		return nil, appErr.Rule("not enough cards left in the deck to swap")
	}

	drawn := append([]string(nil), st.RemainingDeck[:len(discard)]...)
	st.RemainingDeck = st.RemainingDeck[len(discard):]

	newHand := make([]string, 0, cardsPerHand)
	for _, c := range hand {
		if remaining[c] > 0 {
			newHand = append(newHand, c)
			remaining[c]--
		}
	}
	newHand = append(newHand, drawn...)

	st.Hands[playerID] = newHand
	st.SwapComplete = append(st.SwapComplete, playerID)
	if st.SwapCounts == nil {
		st.SwapCounts = make(map[int64]int)
	}
	st.SwapCounts[playerID] = len(discard)

	phaseChanged := st.maybeStartTrickPhase()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range discard {
			if err := deleteCardTx(tx, gameID, playerID, c); err != nil {
				return err
			}
		}
		if err := insertCardsTx(tx, gameID, playerID, drawn); err != nil {
			return err
		}
		return saveStateTx(tx, gameID, st)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, gameID, st)
	return &SwapResult{
		CardsSwapped: len(discard),
		NewHand:      newHand,
		PhaseChanged: phaseChanged,
		State:        st,
	}, nil
}

// maybeStartTrickPhase moves to the trick phase once the bid winner has
// taken the kitty and every other seat has swapped. The player left of the
// bid winner leads the first trick.
func (st *RoundState) maybeStartTrickPhase() bool {
	if !st.BidWinnerReady {
		return false
	}
	for _, pid := range st.SeatOrder {
		if pid == st.HighestBidder {
			continue
		}
		if !st.hasSwapped(pid) {
			return false
		}
	}

	st.Phase = PhaseTrick
	st.CurrentTurn = st.leftOf(st.HighestBidder)
	st.CurrentTrick = []PlayedCard{}
	st.TricksPlayed = 0
	st.TricksWon = make(map[int64]int, st.seatCount())
	st.RemainingDeck = nil
	st.BidWinnerReady = false
	return true
}

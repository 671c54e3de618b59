package game_test

import (
	"context"
	"testing"

	"oneten-service/internal/service/game"
	appErr "oneten-service/pkg/errors"
)

// seedKittyPhase builds a three-seat game sitting in the kitty phase with
// known hands, kitty and remaining deck. The first seat holds the contract
// at 20.
func seedKittyPhase(t *testing.T) (int64, *game.Service, *gormFixture) {
	t.Helper()

	db, svc := newGameService(t)
	gameID, ids := seedGame(t, db, "Anna", "Brendan", "Ciara")

	kitty := []string{"S2", "S3", "S4", "S6", "S7"}
	st := &game.RoundState{
		Phase:       game.PhaseKitty,
		SeatOrder:   ids,
		RoundNumber: 1,
		Hands: map[int64][]string{
			ids[0]: {"H2", "H3", "H4", "H6", "H7"},
			ids[1]: {"D2", "D3", "D4", "D6", "D7"},
			ids[2]: {"C2", "C3", "C4", "C6", "C7"},
		},
		Kitty:         kitty,
		RemainingDeck: []string{"S8", "S9", "S10", "SJ", "SQ", "SK", "SA", "D8", "D9", "D10"},
		CurrentBid:    20,
		CurrentBidder: ids[0],
		HighestBidder: ids[0],
		BiddingOver:   true,
		SwapComplete:  []int64{},
		MaxSwapCards:  3,
		FinalScores:   map[int64]int{ids[0]: 0, ids[1]: 0, ids[2]: 0},
	}

	writeState(t, db, gameID, st)
	for pid, hand := range st.Hands {
		setHand(t, db, gameID, pid, hand)
	}
	setKitty(t, db, gameID, kitty)

	return gameID, svc, &gormFixture{db: db, ids: ids}
}

func TestKittySelectionSetsTrumpAndDiscards(t *testing.T) {
	ctx := context.Background()
	gameID, svc, fx := seedKittyPhase(t)
	bidWinner := fx.ids[0]

	kept := []string{"H2", "H3", "S2", "S3", "S4"}
	st, err := svc.SelectKittyAndTrump(ctx, gameID, bidWinner, kept, "Hearts")
	if err != nil {
		t.Fatalf("kitty selection failed: %v", err)
	}

	if st.TrumpSuit != "H" {
		t.Fatalf("expected trump H, got %q", st.TrumpSuit)
	}
	if !st.BidWinnerReady {
		t.Fatalf("bid winner should be marked ready")
	}
	if len(st.Hands[bidWinner]) != 5 {
		t.Fatalf("bid winner hand should hold 5 cards, got %v", st.Hands[bidWinner])
	}

	// The kitty rows are gone and the winner's rows match the kept cards.
	rows := cardRows(t, fx.db, gameID)
	winnerCards := map[string]bool{}
	for _, row := range rows {
		if row.PlayerID == nil {
			t.Fatalf("kitty row survived the selection: %s", row.Card)
		}
		if *row.PlayerID == bidWinner {
			winnerCards[row.Card] = true
		}
	}
	if len(winnerCards) != 5 {
		t.Fatalf("expected 5 winner rows, got %d", len(winnerCards))
	}
	for _, c := range kept {
		if !winnerCards[c] {
			t.Fatalf("kept card %s missing from rows", c)
		}
	}
}

func TestKittySelectionWrongCount(t *testing.T) {
	ctx := context.Background()
	gameID, svc, fx := seedKittyPhase(t)

	_, err := svc.SelectKittyAndTrump(ctx, gameID, fx.ids[0], []string{"H2", "H3"}, "H")
	if err == nil || appErr.KindOf(err) != appErr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestKittySelectionRequiresBidWinner(t *testing.T) {
	ctx := context.Background()
	gameID, svc, fx := seedKittyPhase(t)

	_, err := svc.SelectKittyAndTrump(ctx, gameID, fx.ids[1], []string{"D2", "D3", "D4", "D6", "D7"}, "D")
	if err == nil || appErr.KindOf(err) != appErr.KindRule {
		t.Fatalf("expected rule violation, got %v", err)
	}
}

func TestKittySelectionRejectsForeignCard(t *testing.T) {
	ctx := context.Background()
	gameID, svc, fx := seedKittyPhase(t)

	// C2 belongs to another player's hand.
	_, err := svc.SelectKittyAndTrump(ctx, gameID, fx.ids[0], []string{"H2", "H3", "H4", "H6", "C2"}, "H")
	if err == nil || appErr.KindOf(err) != appErr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSwapDrawsFromRemainingDeck(t *testing.T) {
	ctx := context.Background()
	gameID, svc, fx := seedKittyPhase(t)
	swapper := fx.ids[1]

	result, err := svc.SwapCards(ctx, gameID, swapper, []string{"D2", "D3"})
	if err != nil {
		t.Fatalf("swap failed: %v", err)
	}
	if result.CardsSwapped != 2 {
		t.Fatalf("expected 2 cards swapped, got %d", result.CardsSwapped)
	}
	if len(result.NewHand) != 5 {
		t.Fatalf("expected hand of 5 after swap, got %v", result.NewHand)
	}
	// The first two deck cards replace the discards.
	got := map[string]bool{}
	for _, c := range result.NewHand {
		got[c] = true
	}
	for _, c := range []string{"D4", "D6", "D7", "S8", "S9"} {
		if !got[c] {
			t.Fatalf("expected %s in new hand %v", c, result.NewHand)
		}
	}
	if result.State.SwapCounts[swapper] != 2 {
		t.Fatalf("swap count not recorded: %v", result.State.SwapCounts)
	}
	if len(result.State.RemainingDeck) != 8 {
		t.Fatalf("expected 8 cards left in deck, got %d", len(result.State.RemainingDeck))
	}
}

func TestSwapLimitEnforced(t *testing.T) {
	ctx := context.Background()
	gameID, svc, fx := seedKittyPhase(t)

	_, err := svc.SwapCards(ctx, gameID, fx.ids[1], []string{"D2", "D3", "D4", "D6"})
	if err == nil || appErr.KindOf(err) != appErr.KindRule {
		t.Fatalf("expected rule violation for oversized swap, got %v", err)
	}
}

func TestSwapOncePerRound(t *testing.T) {
	ctx := context.Background()
	gameID, svc, fx := seedKittyPhase(t)

	if _, err := svc.SwapCards(ctx, gameID, fx.ids[1], []string{"D2"}); err != nil {
		t.Fatalf("first swap failed: %v", err)
	}
	_, err := svc.SwapCards(ctx, gameID, fx.ids[1], []string{"D3"})
	if err == nil || appErr.KindOf(err) != appErr.KindRule {
		t.Fatalf("expected rule violation for second swap, got %v", err)
	}
}

func TestSwapRejectsBidWinner(t *testing.T) {
	ctx := context.Background()
	gameID, svc, fx := seedKittyPhase(t)

	_, err := svc.SwapCards(ctx, gameID, fx.ids[0], []string{"H2"})
	if err == nil || appErr.KindOf(err) != appErr.KindRule {
		t.Fatalf("expected rule violation, got %v", err)
	}
}

func TestSwapRejectsCardNotInHand(t *testing.T) {
	ctx := context.Background()
	gameID, svc, fx := seedKittyPhase(t)

	_, err := svc.SwapCards(ctx, gameID, fx.ids[1], []string{"H2"})
	if err == nil || appErr.KindOf(err) != appErr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTrickPhaseStartsWhenEveryoneIsReady(t *testing.T) {
	ctx := context.Background()
	gameID, svc, fx := seedKittyPhase(t)
	bidWinner := fx.ids[0]

	if _, err := svc.SelectKittyAndTrump(ctx, gameID, bidWinner, []string{"H2", "H3", "H4", "S2", "S3"}, "H"); err != nil {
		t.Fatalf("kitty selection failed: %v", err)
	}
	if _, err := svc.SwapCards(ctx, gameID, fx.ids[1], nil); err != nil {
		t.Fatalf("swap failed: %v", err)
	}
	result, err := svc.SwapCards(ctx, gameID, fx.ids[2], []string{"C2"})
	if err != nil {
		t.Fatalf("swap failed: %v", err)
	}

	if !result.PhaseChanged {
		t.Fatalf("last swap should start the trick phase")
	}
	st := result.State
	if st.Phase != game.PhaseTrick {
		t.Fatalf("expected trick phase, got %s", st.Phase)
	}
	// The player left of the bid winner leads.
	if st.CurrentTurn != fx.ids[1] {
		t.Fatalf("expected %d to lead, got %d", fx.ids[1], st.CurrentTurn)
	}
	if st.RemainingDeck != nil {
		t.Fatalf("remaining deck should be dropped at trick start")
	}
	if st.BidWinnerReady {
		t.Fatalf("bidWinnerReady should be cleared at trick start")
	}
	for _, pid := range fx.ids {
		if len(st.Hands[pid]) != 5 {
			t.Fatalf("player %d should hold 5 cards, got %v", pid, st.Hands[pid])
		}
	}
}

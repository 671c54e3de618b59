package game_test

import (
	"context"
	"testing"

	"oneten-service/internal/service/game"
	appErr "oneten-service/pkg/errors"
)

func dealAndOpenBidding(t *testing.T, svc *game.Service, gameID int64) *game.RoundState {
	t.Helper()

	ctx := context.Background()
	if _, err := svc.DealRound(ctx, gameID); err != nil {
		t.Fatalf("deal failed: %v", err)
	}
	st, err := svc.StartBidding(ctx, gameID)
	if err != nil {
		t.Fatalf("start bidding failed: %v", err)
	}
	return st
}

func TestStartBiddingOpensLeftOfDealer(t *testing.T) {
	db, svc := newGameService(t)
	gameID, ids := seedGame(t, db, "Anna", "Brendan", "Ciara", "Declan")

	st := dealAndOpenBidding(t, svc, gameID)

	if st.Phase != game.PhaseBidding {
		t.Fatalf("expected bidding phase, got %s", st.Phase)
	}
	// Dealer is the first seat, so the second seat opens.
	if st.CurrentBidder != ids[1] {
		t.Fatalf("expected first bidder %d, got %d", ids[1], st.CurrentBidder)
	}
	if st.CurrentBid != 0 || st.HighestBidder != 0 {
		t.Fatalf("expected empty auction, got bid=%d bidder=%d", st.CurrentBid, st.HighestBidder)
	}
	if len(st.ValidBids) != 4 || st.ValidBids[0] != 15 || st.ValidBids[3] != 30 {
		t.Fatalf("unexpected valid bids: %v", st.ValidBids)
	}
	for _, pid := range ids {
		if st.FinalScores[pid] != 0 {
			t.Fatalf("expected zeroed scores, got %v", st.FinalScores)
		}
	}
}

func TestBidsMustClimbTheLadder(t *testing.T) {
	ctx := context.Background()
	db, svc := newGameService(t)
	gameID, ids := seedGame(t, db, "Anna", "Brendan", "Ciara", "Declan")

	dealAndOpenBidding(t, svc, gameID)

	if _, err := svc.PlaceBid(ctx, gameID, ids[1], 17); err == nil || appErr.KindOf(err) != appErr.KindRule {
		t.Fatalf("expected rule violation for off-ladder bid, got %v", err)
	}

	if _, err := svc.PlaceBid(ctx, gameID, ids[1], 20); err != nil {
		t.Fatalf("bid 20 failed: %v", err)
	}
	// An equal bid from a non-dealer is rejected.
	if _, err := svc.PlaceBid(ctx, gameID, ids[2], 20); err == nil || appErr.KindOf(err) != appErr.KindRule {
		t.Fatalf("expected rule violation for equal bid, got %v", err)
	}
	st, err := svc.PlaceBid(ctx, gameID, ids[2], 25)
	if err != nil {
		t.Fatalf("bid 25 failed: %v", err)
	}
	if st.CurrentBid != 25 || st.HighestBidder != ids[2] {
		t.Fatalf("expected bid 25 by %d, got %d by %d", ids[2], st.CurrentBid, st.HighestBidder)
	}
	if len(st.ValidBids) != 1 || st.ValidBids[0] != 30 {
		t.Fatalf("expected only 30 to remain, got %v", st.ValidBids)
	}
}

func TestBidOutOfTurn(t *testing.T) {
	ctx := context.Background()
	db, svc := newGameService(t)
	gameID, ids := seedGame(t, db, "Anna", "Brendan", "Ciara", "Declan")

	dealAndOpenBidding(t, svc, gameID)

	_, err := svc.PlaceBid(ctx, gameID, ids[3], 15)
	if err == nil || appErr.KindOf(err) != appErr.KindTurnOrder {
		t.Fatalf("expected turn order error, got %v", err)
	}
}

func TestDealerMatchEndsAuction(t *testing.T) {
	ctx := context.Background()
	db, svc := newGameService(t)
	gameID, ids := seedGame(t, db, "Anna", "Brendan", "Ciara", "Declan")
	dealer := ids[0]

	dealAndOpenBidding(t, svc, gameID)

	if _, err := svc.PlaceBid(ctx, gameID, ids[1], 15); err != nil {
		t.Fatalf("bid 15 failed: %v", err)
	}
	if _, err := svc.PlaceBid(ctx, gameID, ids[2], 20); err != nil {
		t.Fatalf("bid 20 failed: %v", err)
	}
	st, err := svc.PlaceBid(ctx, gameID, ids[3], 0)
	if err != nil {
		t.Fatalf("pass failed: %v", err)
	}
	if !st.DealerCanMatch {
		t.Fatalf("dealer should be offered the match")
	}
	if st.ValidBids[0] != 20 {
		t.Fatalf("the current bid should be re-admitted for the dealer, got %v", st.ValidBids)
	}

	st, err = svc.PlaceBid(ctx, gameID, dealer, 20)
	if err != nil {
		t.Fatalf("dealer match failed: %v", err)
	}
	if st.Phase != game.PhaseKitty {
		t.Fatalf("expected kitty phase after dealer match, got %s", st.Phase)
	}
	if st.HighestBidder != dealer || st.CurrentBid != 20 {
		t.Fatalf("dealer should hold the contract at 20, got %d at %d", st.HighestBidder, st.CurrentBid)
	}
	if !st.BiddingOver {
		t.Fatalf("bidding should be over")
	}
}

func TestAuctionResolvesWhenRotationReturnsToHighestBidder(t *testing.T) {
	ctx := context.Background()
	db, svc := newGameService(t)
	gameID, ids := seedGame(t, db, "Anna", "Brendan", "Ciara", "Declan")

	dealAndOpenBidding(t, svc, gameID)

	if _, err := svc.PlaceBid(ctx, gameID, ids[1], 15); err != nil {
		t.Fatalf("bid failed: %v", err)
	}
	if _, err := svc.PlaceBid(ctx, gameID, ids[2], 0); err != nil {
		t.Fatalf("pass failed: %v", err)
	}
	if _, err := svc.PlaceBid(ctx, gameID, ids[3], 0); err != nil {
		t.Fatalf("pass failed: %v", err)
	}
	st, err := svc.PlaceBid(ctx, gameID, ids[0], 0)
	if err != nil {
		t.Fatalf("dealer pass failed: %v", err)
	}
	if st.Phase != game.PhaseKitty {
		t.Fatalf("expected kitty phase, got %s", st.Phase)
	}
	if st.HighestBidder != ids[1] || st.CurrentBidder != ids[1] {
		t.Fatalf("contract should rest with %d, got %d", ids[1], st.HighestBidder)
	}
}

func TestForcedDealerBid(t *testing.T) {
	ctx := context.Background()
	db, svc := newGameService(t)
	gameID, ids := seedGame(t, db, "Anna", "Brendan", "Ciara", "Declan")
	dealer := ids[0]

	dealAndOpenBidding(t, svc, gameID)

	for _, pid := range ids[1:] {
		if _, err := svc.PlaceBid(ctx, gameID, pid, 0); err != nil {
			t.Fatalf("pass failed: %v", err)
		}
	}

	// The dealer cannot pass out the hand.
	if _, err := svc.PlaceBid(ctx, gameID, dealer, 0); err == nil || appErr.KindOf(err) != appErr.KindRule {
		t.Fatalf("expected rule violation for dealer pass, got %v", err)
	}

	st, err := svc.PlaceBid(ctx, gameID, dealer, 15)
	if err != nil {
		t.Fatalf("forced dealer bid failed: %v", err)
	}
	if st.Phase != game.PhaseKitty {
		t.Fatalf("expected kitty phase, got %s", st.Phase)
	}
	if !st.ForcedDealerBid {
		t.Fatalf("forcedDealerBid should be recorded")
	}
	if st.HighestBidder != dealer || st.CurrentBid != 15 {
		t.Fatalf("dealer should hold the contract at 15")
	}
}

func TestBidWhileNotBidding(t *testing.T) {
	ctx := context.Background()
	db, svc := newGameService(t)
	gameID, ids := seedGame(t, db, "Anna", "Brendan")

	if _, err := svc.DealRound(ctx, gameID); err != nil {
		t.Fatalf("deal failed: %v", err)
	}
	_, err := svc.PlaceBid(ctx, gameID, ids[0], 15)
	if err == nil || appErr.KindOf(err) != appErr.KindRule {
		t.Fatalf("expected rule violation outside bidding, got %v", err)
	}
}

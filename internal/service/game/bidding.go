package game

import (
	"context"

	appErr "oneten-service/pkg/errors"
)

// StartBidding opens the auction for a dealt round. The first bidder sits
// left of the dealer.
func (s *Service) StartBidding(ctx context.Context, gameID int64) (*RoundState, error) {
	unlock := s.lockGame(gameID)
	defer unlock()

	st, err := s.loadState(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if st.seatCount() == 0 {
		return nil, appErr.ErrNoPlayers
	}
	if len(st.Hands) == 0 {
		return nil, appErr.Rule("cards must be dealt before bidding can start")
	}

	beginBidding(st)

	if err := s.saveState(ctx, gameID, st); err != nil {
		return nil, err
	}
	s.publish(ctx, gameID, st)
	return st, nil
}

func beginBidding(st *RoundState) {
	st.Phase = PhaseBidding
	st.CurrentBid = 0
	st.CurrentBidder = st.leftOf(st.dealerID())
	st.HighestBidder = 0
	st.ValidBids = append([]int(nil), bidLadder...)
	st.PassedPlayers = []int64{}
	st.BiddingOver = false
	st.DealerMustBid = false
	st.DealerCanMatch = false
	st.ForcedDealerBid = false

	if st.RoundNumber == 0 {
		st.RoundNumber = 1
	}
	if st.FinalScores == nil {
		st.FinalScores = make(map[int64]int, st.seatCount())
		for _, pid := range st.SeatOrder {
			st.FinalScores[pid] = 0
		}
	}
}

// PlaceBid handles one bid or pass. amount 0 is a pass; otherwise the amount
// must come from the 15/20/25/30 ladder and beat the current bid, except for
// the dealer, who may match it and take the contract on the spot.
func (s *Service) PlaceBid(ctx context.Context, gameID, playerID int64, amount int) (*RoundState, error) {
	unlock := s.lockGame(gameID)
	defer unlock()

	st, err := s.loadState(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if st.Phase != PhaseBidding {
		return nil, appErr.Rule("bidding is not in progress")
	}
	if st.CurrentBidder != playerID {
		return nil, appErr.TurnOrder("it is not your turn to bid")
	}

	dealerID := st.dealerID()
	isDealer := playerID == dealerID

	if amount == 0 {
		// Dealer cannot pass once everyone else has, with no bid on the table.
		if isDealer && st.CurrentBid == 0 && st.allOthersPassed(dealerID) {
			return nil, appErr.Rule("all players passed. The dealer must bid at least %d", bidLadder[0])
		}
		if !st.hasPassed(playerID) {
			st.PassedPlayers = append(st.PassedPlayers, playerID)
		}
		st.ForcedDealerBid = false
	} else {
		dealerMatched := isDealer && st.CurrentBid > 0 && amount == st.CurrentBid
		if !dealerMatched && amount <= st.CurrentBid {
			return nil, appErr.Rule("bid must be higher than the current bid of %d", st.CurrentBid)
		}
		if !onBidLadder(amount) {
			return nil, appErr.Rule("invalid bid: valid bids are 15, 20, 25, or 30")
		}

		st.ForcedDealerBid = isDealer && st.CurrentBid == 0 && st.allOthersPassed(dealerID)
		st.CurrentBid = amount
		st.HighestBidder = playerID

		if dealerMatched {
			// Dealer match wins the auction immediately.
			finishBidding(st)
			if err := s.saveState(ctx, gameID, st); err != nil {
				return nil, err
			}
			s.publish(ctx, gameID, st)
			return st, nil
		}
		st.ValidBids = bidsAbove(amount)
	}

	next, active := st.nextActiveBidder(playerID)
	switch {
	case active == 0:
		return nil, appErr.Rule("all players passed. The hand must be redealt")
	case active == 1 && st.HighestBidder != 0:
		finishBidding(st)
	case st.HighestBidder != 0 && next == st.HighestBidder:
		finishBidding(st)
	default:
		st.CurrentBidder = next
		if next == dealerID {
			st.DealerMustBid = st.CurrentBid == 0 && st.allOthersPassed(dealerID)
			if st.CurrentBid > 0 {
				st.DealerCanMatch = true
				st.ValidBids = withMatchBid(st.ValidBids, st.CurrentBid)
			} else {
				st.DealerCanMatch = false
			}
		} else {
			st.DealerMustBid = false
			st.DealerCanMatch = false
		}
	}

	if err := s.saveState(ctx, gameID, st); err != nil {
		return nil, err
	}
	s.publish(ctx, gameID, st)
	return st, nil
}

// finishBidding hands the contract to the highest bidder and opens the kitty
// phase.
func finishBidding(st *RoundState) {
	st.BiddingOver = true
	st.Phase = PhaseKitty
	st.CurrentBidder = st.HighestBidder
	st.DealerMustBid = false
	st.DealerCanMatch = false
	st.ValidBids = nil
}

// allOthersPassed reports whether every seat except dealerID has passed.
func (st *RoundState) allOthersPassed(dealerID int64) bool {
	for _, pid := range st.SeatOrder {
		if pid == dealerID {
			continue
		}
		if !st.hasPassed(pid) {
			return false
		}
	}
	return true
}

// nextActiveBidder walks clockwise from playerID to the next seat that has
// not passed, and counts the seats still in the auction.
func (st *RoundState) nextActiveBidder(playerID int64) (int64, int) {
	active := 0
	for _, pid := range st.SeatOrder {
		if !st.hasPassed(pid) {
			active++
		}
	}

	n := st.seatCount()
	idx := st.seatIndexOf(playerID)
	if idx < 0 || n == 0 {
		return 0, active
	}
	for i := 1; i <= n; i++ {
		pid := st.SeatOrder[(idx+i)%n]
		if !st.hasPassed(pid) {
			return pid, active
		}
	}
	return 0, active
}

func onBidLadder(amount int) bool {
	for _, b := range bidLadder {
		if b == amount {
			return true
		}
	}
	return false
}

func bidsAbove(amount int) []int {
	var out []int
	for _, b := range bidLadder {
		if b > amount {
			out = append(out, b)
		}
	}
	return out
}

// withMatchBid re-admits the current bid for the dealer's match option.
func withMatchBid(bids []int, current int) []int {
	for _, b := range bids {
		if b == current {
			return bids
		}
	}
	out := append([]int{current}, bids...)
	return out
}

package game

// ScoreRound settles a finished round: 5 points per trick, a 5-point bonus
// for the single highest card played, and the bid winner's make-or-set
// accounting. Mutates st into the round_summary phase.
//
// The bonus is forfeited, not transferred, when the bid winner started the
// round at 85 or more and also played the highest card. A set bid winner
// loses the bid amount and can go negative.
func ScoreRound(st *RoundState) {
	if st.FinalScores == nil {
		st.FinalScores = make(map[int64]int, st.seatCount())
	}

	bidWinner := st.HighestBidder
	winningBid := st.CurrentBid
	highestCardPlayer := st.HighestCardPlayer

	startScore := st.FinalScores[bidWinner]
	forfeits := highestCardPlayer != 0 &&
		highestCardPlayer == bidWinner &&
		startScore >= forfeitScore

	bidWinnerTotal := st.TricksWon[bidWinner] * trickValue
	if highestCardPlayer == bidWinner && highestCardPlayer != 0 && !forfeits {
		bidWinnerTotal += bonusValue
	}
	bidMade := bidWinnerTotal >= winningBid

	summary := &RoundSummary{
		BidWinner:              bidWinner,
		Bid:                    winningBid,
		BidMade:                bidMade,
		TricksWon:              make(map[int64]int, st.seatCount()),
		RoundPoints:            make(map[int64]int, st.seatCount()),
		HighestCardPlayer:      highestCardPlayer,
		HighestCard:            st.HighestCardInRound,
		HighestCardTrick:       st.HighestCardTrick,
		BidWinnerForfeitsBonus: forfeits,
	}

	for _, pid := range st.SeatOrder {
		tricks := st.TricksWon[pid]
		points := tricks * trickValue

		hasBonus := highestCardPlayer != 0 && pid == highestCardPlayer
		if pid == bidWinner && forfeits {
			hasBonus = false
		}
		if hasBonus {
			points += bonusValue
		}

		delta := points
		if pid == bidWinner && !bidMade {
			delta = -winningBid
		}

		st.FinalScores[pid] += delta
		summary.TricksWon[pid] = tricks
		summary.RoundPoints[pid] = delta
	}
	summary.TotalScores = copyScores(st.FinalScores)

	st.RoundSummary = summary
	st.RoundHistory = append(st.RoundHistory, RoundHistoryEntry{
		BidWinner:   bidWinner,
		Bid:         winningBid,
		BidMade:     bidMade,
		ForcedBid:   st.ForcedDealerBid,
		TrumpSuit:   st.TrumpSuit,
		TricksWon:   copyScores(summary.TricksWon),
		RoundPoints: copyScores(summary.RoundPoints),
		FinalScores: copyScores(st.FinalScores),
	})

	st.HighestCardInRound = ""
	st.HighestCardPlayer = 0
	st.HighestCardRank = 0
	st.HighestCardTrick = 0
	st.TrickComplete = false
	st.LastCompletedTrick = nil
	st.Phase = PhaseRoundSummary
}

// DetermineGameWinner replays the finished round trick by trick to find the
// first player whose running total reached 110, in the order the tricks
// fell. The bonus counts from the trick it was earned. A bid winner who was
// set cannot win this round; any other player crossing 110 wins even if the
// bid winner crossed first.
func DetermineGameWinner(st *RoundState) (int64, bool) {
	summary := st.RoundSummary
	if summary == nil || len(st.TrickWinners) == 0 {
		return 0, false
	}

	running := make(map[int64]int, st.seatCount())
	for _, pid := range st.SeatOrder {
		running[pid] = st.FinalScores[pid] - summary.RoundPoints[pid]
	}

	bonusTrick := summary.HighestCardTrick
	if bonusTrick == 0 {
		bonusTrick = tricksInRound
	}

	reachedAt := make(map[int64]int, st.seatCount())
	var reachedOrder []int64
	for _, tw := range st.TrickWinners {
		running[tw.Winner] += trickValue
		for _, pid := range st.SeatOrder {
			score := running[pid]
			if pid == summary.HighestCardPlayer && summary.HighestCardPlayer != 0 &&
				tw.Trick >= bonusTrick && !(pid == summary.BidWinner && summary.BidWinnerForfeitsBonus) {
				score += bonusValue
			}
			if score >= winningScore {
				if _, seen := reachedAt[pid]; !seen {
					reachedAt[pid] = tw.Trick
					reachedOrder = append(reachedOrder, pid)
				}
			}
		}
	}

	for _, pid := range reachedOrder {
		if pid == summary.BidWinner && !summary.BidMade {
			continue
		}
		return pid, true
	}
	return 0, false
}

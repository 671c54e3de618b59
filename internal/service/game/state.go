package game

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"oneten-service/internal/model"
	appErr "oneten-service/pkg/errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Phase string

const (
	PhaseWaiting      Phase = "waiting"
	PhaseBidding      Phase = "bidding"
	PhaseKitty        Phase = "kitty"
	PhaseTrick        Phase = "trick"
	PhaseRoundSummary Phase = "round_summary"
	PhaseGameOver     Phase = "game_over"
)

// PlayedCard is one card laid into the current trick.
type PlayedCard struct {
	PlayerID int64  `json:"playerId"`
	Card     string `json:"card"`
}

// TrickRecord remembers who took which trick; the first-to-110 scan replays
// these in order.
type TrickRecord struct {
	Trick       int    `json:"trick"`
	Winner      int64  `json:"winner"`
	WinningCard string `json:"winningCard"`
}

// Reaction is the last emoji a player sent, relayed to viewers untouched.
type Reaction struct {
	PlayerID   int64  `json:"playerId"`
	PlayerName string `json:"playerName"`
	Emoji      string `json:"emoji"`
	Timestamp  int64  `json:"timestamp"`
}

// RoundSummary is the scoring result shown between rounds.
type RoundSummary struct {
	BidWinner              int64         `json:"bidWinner"`
	Bid                    int           `json:"bid"`
	BidMade                bool          `json:"bidMade"`
	TricksWon              map[int64]int `json:"tricksWon"`
	RoundPoints            map[int64]int `json:"roundPoints"`
	TotalScores            map[int64]int `json:"totalScores"`
	HighestCardPlayer      int64         `json:"highestCardPlayer,omitempty"`
	HighestCard            string        `json:"highestCard,omitempty"`
	HighestCardTrick       int           `json:"highestCardTrick,omitempty"`
	BidWinnerForfeitsBonus bool          `json:"bidWinnerForfeitsBonus"`
}

// RoundHistoryEntry is the append-only per-round audit record.
type RoundHistoryEntry struct {
	BidWinner   int64         `json:"bidWinner"`
	Bid         int           `json:"bid"`
	BidMade     bool          `json:"bidMade"`
	ForcedBid   bool          `json:"forcedBid"`
	TrumpSuit   string        `json:"trumpSuit"`
	TricksWon   map[int64]int `json:"tricksWon"`
	RoundPoints map[int64]int `json:"roundPoints"`
	FinalScores map[int64]int `json:"finalScores"`
}

// RoundState is the whole game document, persisted as one JSON blob and
// overwritten atomically on every command.
type RoundState struct {
	Phase       Phase   `json:"phase"`
	SeatOrder   []int64 `json:"seatOrder"`
	Dealer      int     `json:"dealer"`
	RoundNumber int     `json:"roundNumber"`

	Hands         map[int64][]string `json:"hands"`
	Kitty         []string           `json:"kitty,omitempty"`
	RemainingDeck []string           `json:"remainingDeck,omitempty"`

	// bidding
	CurrentBid      int     `json:"currentBid"`
	CurrentBidder   int64   `json:"currentBidder,omitempty"`
	HighestBidder   int64   `json:"highestBidder,omitempty"`
	ValidBids       []int   `json:"validBids,omitempty"`
	PassedPlayers   []int64 `json:"passedPlayers,omitempty"`
	BiddingOver     bool    `json:"biddingOver"`
	DealerMustBid   bool    `json:"dealerMustBid"`
	DealerCanMatch  bool    `json:"dealerCanMatch"`
	ForcedDealerBid bool    `json:"forcedDealerBid"`

	// kitty / swap
	TrumpSuit      string        `json:"trumpSuit,omitempty"`
	BidWinnerReady bool          `json:"bidWinnerReady,omitempty"`
	SwapComplete   []int64       `json:"swapComplete,omitempty"`
	SwapCounts     map[int64]int `json:"swapCounts,omitempty"`
	MaxSwapCards   int           `json:"maxSwapCards,omitempty"`

	// trick
	CurrentTurn        int64         `json:"currentTurn,omitempty"`
	CurrentTrick       []PlayedCard  `json:"currentTrick"`
	TricksPlayed       int           `json:"tricksPlayed"`
	TricksWon          map[int64]int `json:"tricksWon,omitempty"`
	TrickWinners       []TrickRecord `json:"trickWinners,omitempty"`
	TrickComplete      bool          `json:"trickComplete,omitempty"`
	LastCompletedTrick []PlayedCard  `json:"lastCompletedTrick,omitempty"`
	LastTrickWinner    int64         `json:"lastTrickWinner,omitempty"`

	// highest card of the round (bonus tracker)
	HighestCardInRound string `json:"highestCardInRound,omitempty"`
	HighestCardPlayer  int64  `json:"highestCardPlayer,omitempty"`
	HighestCardRank    int    `json:"highestCardRank,omitempty"`
	HighestCardTrick   int    `json:"highestCardTrick,omitempty"`

	// scoring
	FinalScores  map[int64]int       `json:"finalScores,omitempty"`
	RoundSummary *RoundSummary       `json:"roundSummary,omitempty"`
	RoundHistory []RoundHistoryEntry `json:"roundHistory,omitempty"`
	GameWinner   int64               `json:"gameWinner,omitempty"`

	LastReaction *Reaction `json:"lastReaction,omitempty"`
}

func (st *RoundState) seatCount() int {
	return len(st.SeatOrder)
}

func (st *RoundState) seatIndexOf(playerID int64) int {
	for i, pid := range st.SeatOrder {
		if pid == playerID {
			return i
		}
	}
	return -1
}

// dealerID resolves the dealer seat index to a player id.
func (st *RoundState) dealerID() int64 {
	if st.seatCount() == 0 {
		return 0
	}
	return st.SeatOrder[st.Dealer%st.seatCount()]
}

// leftOf returns the next seat clockwise from playerID.
func (st *RoundState) leftOf(playerID int64) int64 {
	idx := st.seatIndexOf(playerID)
	if idx < 0 || st.seatCount() == 0 {
		return 0
	}
	return st.SeatOrder[(idx+1)%st.seatCount()]
}

func (st *RoundState) hasPassed(playerID int64) bool {
	for _, pid := range st.PassedPlayers {
		if pid == playerID {
			return true
		}
	}
	return false
}

func (st *RoundState) hasSwapped(playerID int64) bool {
	for _, pid := range st.SwapComplete {
		if pid == playerID {
			return true
		}
	}
	return false
}

// lockGame serializes commands per game. Returns the unlock func.
func (s *Service) lockGame(gameID int64) func() {
	v, _ := s.locks.LoadOrStore(gameID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *Service) loadState(ctx context.Context, gameID int64) (*RoundState, error) {
	var row model.GameState
	err := s.db.WithContext(ctx).First(&row, "game_id = ?", gameID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrStateNotFound
		}
		return nil, err
	}
	st := &RoundState{}
	if len(row.State) > 0 {
		if err := json.Unmarshal(row.State, st); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// saveStateTx upserts the blob inside the caller's transaction so card-row
// writes and the document land together or not at all.
func saveStateTx(tx *gorm.DB, gameID int64, st *RoundState) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return err
	}
	row := model.GameState{GameID: gameID, State: datatypes.JSON(payload)}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}).Create(&row).Error
}

func (s *Service) saveState(ctx context.Context, gameID int64, st *RoundState) error {
	return saveStateTx(s.db.WithContext(ctx), gameID, st)
}

func copyScores(src map[int64]int) map[int64]int {
	dst := make(map[int64]int, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

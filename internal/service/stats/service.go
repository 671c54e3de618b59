package stats

import (
	"context"
	"encoding/json"
	"errors"

	"oneten-service/internal/model"
	"oneten-service/internal/service/game"
	appErr "oneten-service/pkg/errors"

	"gorm.io/gorm"
)

// Service reads finished and in-flight games back out of the state blobs
// for the statistics pages. It never mutates anything.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type Overview struct {
	TotalGames     int    `json:"totalGames"`
	CompletedGames int    `json:"completedGames"`
	TopPlayer      string `json:"topPlayer,omitempty"`
	TopPlayerWins  int    `json:"topPlayerWins"`
}

type HistoryItem struct {
	GameID int64  `json:"gameId"`
	Code   string `json:"code"`
	Status string `json:"status"`
	Rounds int    `json:"rounds"`
	Winner string `json:"winner,omitempty"`
}

type RoundDetail struct {
	Round       int           `json:"round"`
	BidWinner   string        `json:"bidWinner"`
	Bid         int           `json:"bid"`
	BidMade     bool          `json:"bidMade"`
	ForcedBid   bool          `json:"forcedBid"`
	TrumpSuit   string        `json:"trumpSuit"`
	RoundPoints map[int64]int `json:"roundPoints"`
	FinalScores map[int64]int `json:"finalScores"`
}

type GameDetails struct {
	GameID      int64            `json:"gameId"`
	Code        string           `json:"code"`
	PlayerNames map[int64]string `json:"playerNames"`
	Rounds      []RoundDetail    `json:"rounds"`
	FinalScores map[int64]int    `json:"finalScores,omitempty"`
	Winner      string           `json:"winner,omitempty"`
}

type gameWithState struct {
	game  model.Game
	state *game.RoundState
}

func (s *Service) loadAll(ctx context.Context) ([]gameWithState, error) {
	var games []model.Game
	if err := s.db.WithContext(ctx).Order("game_id ASC").Find(&games).Error; err != nil {
		return nil, err
	}
	var states []model.GameState
	if err := s.db.WithContext(ctx).Find(&states).Error; err != nil {
		return nil, err
	}

	byGame := make(map[int64]*game.RoundState, len(states))
	for _, row := range states {
		if len(row.State) == 0 {
			continue
		}
		st := &game.RoundState{}
		if err := json.Unmarshal(row.State, st); err != nil {
			// Skip undecodable blobs rather than failing the whole report.
			continue
		}
		byGame[row.GameID] = st
	}

	out := make([]gameWithState, 0, len(games))
	for _, g := range games {
		out = append(out, gameWithState{game: g, state: byGame[g.ID]})
	}
	return out, nil
}

func (s *Service) namesByGame(ctx context.Context) (map[int64]map[int64]string, error) {
	var players []model.Player
	if err := s.db.WithContext(ctx).Find(&players).Error; err != nil {
		return nil, err
	}
	names := make(map[int64]map[int64]string)
	for _, p := range players {
		if names[p.GameID] == nil {
			names[p.GameID] = make(map[int64]string)
		}
		names[p.GameID][p.ID] = p.Name
	}
	return names, nil
}

// GetOverview aggregates all games: totals plus the player with the most
// game wins.
func (s *Service) GetOverview(ctx context.Context) (*Overview, error) {
	all, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	names, err := s.namesByGame(ctx)
	if err != nil {
		return nil, err
	}

	ov := &Overview{TotalGames: len(all)}
	winsByName := make(map[string]int)
	for _, gs := range all {
		if gs.state == nil || gs.state.GameWinner == 0 {
			continue
		}
		ov.CompletedGames++
		if name := names[gs.game.ID][gs.state.GameWinner]; name != "" {
			winsByName[name]++
		}
	}
	for name, wins := range winsByName {
		if wins > ov.TopPlayerWins {
			ov.TopPlayer = name
			ov.TopPlayerWins = wins
		}
	}
	return ov, nil
}

// GetHistory lists every game with its status, round count and winner.
func (s *Service) GetHistory(ctx context.Context) ([]HistoryItem, error) {
	all, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	names, err := s.namesByGame(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]HistoryItem, 0, len(all))
	for _, gs := range all {
		item := HistoryItem{GameID: gs.game.ID, Code: gs.game.Code, Status: "waiting"}
		if gs.state != nil {
			item.Rounds = len(gs.state.RoundHistory)
			if gs.state.GameWinner != 0 {
				item.Status = "completed"
				item.Winner = names[gs.game.ID][gs.state.GameWinner]
			} else {
				item.Status = "in_progress"
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// GetGameDetails reports one game round by round from its roundHistory.
func (s *Service) GetGameDetails(ctx context.Context, gameID int64) (*GameDetails, error) {
	var g model.Game
	err := s.db.WithContext(ctx).First(&g, "game_id = ?", gameID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrGameNotFound
		}
		return nil, err
	}

	var row model.GameState
	err = s.db.WithContext(ctx).First(&row, "game_id = ?", gameID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrStateNotFound
		}
		return nil, err
	}
	st := &game.RoundState{}
	if len(row.State) > 0 {
		if err := json.Unmarshal(row.State, st); err != nil {
			return nil, err
		}
	}

	names, err := s.namesByGame(ctx)
	if err != nil {
		return nil, err
	}
	gameNames := names[gameID]

	details := &GameDetails{
		GameID:      gameID,
		Code:        g.Code,
		PlayerNames: gameNames,
		FinalScores: st.FinalScores,
	}
	if st.GameWinner != 0 {
		details.Winner = gameNames[st.GameWinner]
	}
	for i, entry := range st.RoundHistory {
		details.Rounds = append(details.Rounds, RoundDetail{
			Round:       i + 1,
			BidWinner:   gameNames[entry.BidWinner],
			Bid:         entry.Bid,
			BidMade:     entry.BidMade,
			ForcedBid:   entry.ForcedBid,
			TrumpSuit:   entry.TrumpSuit,
			RoundPoints: entry.RoundPoints,
			FinalScores: entry.FinalScores,
		})
	}
	return details, nil
}

package api

import (
	"net/http"
	"strconv"

	"oneten-service/internal/service"
	"oneten-service/internal/ws"
	appErr "oneten-service/pkg/errors"
	"oneten-service/pkg/logger"
	"oneten-service/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container, wsHandler *ws.Handler) {
	handler := &Handler{services: services}

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})

	v1 := r.Group("/oneten/v1")
	{
		v1.POST("/games", handler.CreateGame)
		v1.POST("/games/join", handler.JoinGame)
		v1.GET("/session/verify", handler.VerifySession)

		games := v1.Group("/games/:gameId")
		{
			games.GET("/state", handler.GetGameState)
			games.GET("/players", handler.GetPlayers)
			games.GET("/cards", handler.GetCards)

			games.POST("/deal", handler.DealRound)
			games.POST("/bidding/start", handler.StartBidding)
			games.POST("/bid", handler.PlaceBid)
			games.POST("/kitty", handler.SelectKitty)
			games.POST("/swap", handler.SwapCards)
			games.POST("/play", handler.PlayCard)
			games.POST("/continue", handler.ContinueToNextRound)
			games.POST("/trick/ack", handler.ClearTrickComplete)
			games.POST("/reaction", handler.SendReaction)
		}

		stats := v1.Group("/stats")
		{
			stats.GET("/overview", handler.StatsOverview)
			stats.GET("/history", handler.StatsHistory)
			stats.GET("/games/:gameId", handler.StatsGameDetails)
		}
	}

	r.GET("/ws/game/:gameId", wsHandler.HandleGameWS)
}

type createGameBody struct {
	PlayerName string `json:"playerName" binding:"required"`
}

type joinGameBody struct {
	GameCode   string `json:"gameCode" binding:"required"`
	PlayerName string `json:"playerName" binding:"required"`
}

type placeBidBody struct {
	PlayerID int64 `json:"playerId" binding:"required"`
	Amount   *int  `json:"amount" binding:"required"`
}

type selectKittyBody struct {
	PlayerID  int64    `json:"playerId" binding:"required"`
	KeptCards []string `json:"keptCards" binding:"required"`
	TrumpSuit string   `json:"trumpSuit" binding:"required"`
}

type swapCardsBody struct {
	PlayerID int64    `json:"playerId" binding:"required"`
	Discard  []string `json:"discard"`
}

type playCardBody struct {
	PlayerID int64  `json:"playerId" binding:"required"`
	Card     string `json:"card" binding:"required"`
}

type reactionBody struct {
	PlayerID int64  `json:"playerId" binding:"required"`
	Emoji    string `json:"emoji" binding:"required"`
}

func gameIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("gameId"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid game id")
		return 0, false
	}
	return id, true
}

// handleError maps the engine's error taxonomy onto HTTP statuses.
func handleError(c *gin.Context, err error) {
	switch appErr.KindOf(err) {
	case appErr.KindValidation:
		response.Error(c, http.StatusBadRequest, err.Error())
	case appErr.KindTurnOrder:
		response.Error(c, http.StatusConflict, err.Error())
	case appErr.KindRule:
		response.Error(c, http.StatusUnprocessableEntity, err.Error())
	case appErr.KindNotFound:
		response.Error(c, http.StatusNotFound, err.Error())
	default:
		logger.Log.Error("internal error", zap.Error(err), zap.String("path", c.FullPath()))
		response.Error(c, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) CreateGame(c *gin.Context) {
	var body createGameBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.services.Session.CreateGame(c.Request.Context(), body.PlayerName)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *Handler) JoinGame(c *gin.Context) {
	var body joinGameBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.services.Session.JoinGame(c.Request.Context(), body.GameCode, body.PlayerName)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *Handler) VerifySession(c *gin.Context) {
	gameID, err1 := strconv.ParseInt(c.Query("gameId"), 10, 64)
	playerID, err2 := strconv.ParseInt(c.Query("playerId"), 10, 64)
	if err1 != nil || err2 != nil || gameID <= 0 || playerID <= 0 {
		response.Error(c, http.StatusBadRequest, "gameId and playerId are required")
		return
	}
	info, err := h.services.Session.VerifySession(c.Request.Context(), gameID, playerID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, info)
}

func (h *Handler) GetGameState(c *gin.Context) {
	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}
	var viewerID int64
	if raw := c.Query("playerId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			response.Error(c, http.StatusBadRequest, "invalid player id")
			return
		}
		viewerID = id
	}
	view, err := h.services.Game.GetGameState(c.Request.Context(), gameID, viewerID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, view)
}

func (h *Handler) GetPlayers(c *gin.Context) {
	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}
	players, err := h.services.Session.ListPlayers(c.Request.Context(), gameID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, players)
}

func (h *Handler) GetCards(c *gin.Context) {
	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}
	cards, err := h.services.Session.ListCards(c.Request.Context(), gameID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, cards)
}

func (h *Handler) DealRound(c *gin.Context) {
	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}
	st, err := h.services.Game.DealRound(c.Request.Context(), gameID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, st)
}

func (h *Handler) StartBidding(c *gin.Context) {
	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}
	st, err := h.services.Game.StartBidding(c.Request.Context(), gameID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, st)
}

func (h *Handler) PlaceBid(c *gin.Context) {
	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}
	var body placeBidBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	st, err := h.services.Game.PlaceBid(c.Request.Context(), gameID, body.PlayerID, *body.Amount)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, st)
}

func (h *Handler) SelectKitty(c *gin.Context) {
	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}
	var body selectKittyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	st, err := h.services.Game.SelectKittyAndTrump(c.Request.Context(), gameID, body.PlayerID, body.KeptCards, body.TrumpSuit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, st)
}

func (h *Handler) SwapCards(c *gin.Context) {
	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}
	var body swapCardsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.services.Game.SwapCards(c.Request.Context(), gameID, body.PlayerID, body.Discard)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *Handler) PlayCard(c *gin.Context) {
	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}
	var body playCardBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	st, err := h.services.Game.PlayCard(c.Request.Context(), gameID, body.PlayerID, body.Card)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, st)
}

func (h *Handler) ContinueToNextRound(c *gin.Context) {
	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}
	st, err := h.services.Game.ContinueToNextRound(c.Request.Context(), gameID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, st)
}

func (h *Handler) ClearTrickComplete(c *gin.Context) {
	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}
	st, err := h.services.Game.ClearTrickComplete(c.Request.Context(), gameID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, st)
}

func (h *Handler) SendReaction(c *gin.Context) {
	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}
	var body reactionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	st, err := h.services.Game.SendReaction(c.Request.Context(), gameID, body.PlayerID, body.Emoji)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, st)
}

func (h *Handler) StatsOverview(c *gin.Context) {
	ov, err := h.services.Stats.GetOverview(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, ov)
}

func (h *Handler) StatsHistory(c *gin.Context) {
	items, err := h.services.Stats.GetHistory(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, items)
}

func (h *Handler) StatsGameDetails(c *gin.Context) {
	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}
	details, err := h.services.Stats.GetGameDetails(c.Request.Context(), gameID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, details)
}

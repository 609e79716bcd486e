package handler

import (
	"net/http"

	"mimic-server/internal/models"
	"mimic-server/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GameHandler обслуживает HTTP-эндпоинты игрового цикла.
type GameHandler struct {
	gameService service.GameService
	logger      *zap.Logger
}

func NewGameHandler(gameService service.GameService, logger *zap.Logger) *GameHandler {
	return &GameHandler{
		gameService: gameService,
		logger:      logger,
	}
}

func (h *GameHandler) RegisterRoutes(router *gin.Engine) {
	gameGroup := router.Group("/api/game")
	{
		gameGroup.POST("/start", h.startGame)
		gameGroup.POST("/select", h.selectWord)
		gameGroup.POST("/undo", h.undoLastWord)
		gameGroup.GET("/:session_id/score", h.getFinalScore)
		gameGroup.POST("/reaction", h.generateReaction)
	}
}

func (h *GameHandler) startGame(c *gin.Context) {
	result, err := h.gameService.StartGame(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	gamesStartedTotal.Inc()

	c.JSON(http.StatusOK, startGameResponse{
		Success:   true,
		SessionID: result.SessionID,
		Question:  result.Question,
		Choices:   result.Choices,
	})
}

func (h *GameHandler) selectWord(c *gin.Context) {
	var req selectWordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "session_id and word are required"})
		return
	}

	result, err := h.gameService.SelectWord(c.Request.Context(), req.SessionID, req.Word)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	wordsSelectedTotal.Inc()
	if result.IsComplete {
		reason := "max_length"
		if req.Word == models.SubmitSentinel {
			reason = "submit"
		}
		gamesCompletedTotal.WithLabelValues(reason).Inc()
	}

	c.JSON(http.StatusOK, turnResponse{
		Success:     true,
		Path:        result.Path,
		NextChoices: result.NextChoices,
		IsComplete:  result.IsComplete,
	})
}

func (h *GameHandler) undoLastWord(c *gin.Context) {
	var req undoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "session_id is required"})
		return
	}

	result, err := h.gameService.UndoLastWord(c.Request.Context(), req.SessionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	undosTotal.Inc()

	c.JSON(http.StatusOK, turnResponse{
		Success:     true,
		Path:        result.Path,
		NextChoices: result.NextChoices,
	})
}

func (h *GameHandler) getFinalScore(c *gin.Context) {
	sessionID := c.Param("session_id")

	score, err := h.gameService.GetFinalScore(c.Request.Context(), sessionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	finalScores.Observe(float64(score.TotalScore))

	c.JSON(http.StatusOK, scoreResponse{
		Success: true,
		Score:   score,
	})
}

func (h *GameHandler) generateReaction(c *gin.Context) {
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "session_id is required"})
		return
	}

	reaction, err := h.gameService.GenerateReaction(c.Request.Context(), req.SessionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, reactionResponse{
		Success:  true,
		Reaction: reaction,
	})
}

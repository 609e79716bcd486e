package handler

import (
	"errors"
	"net/http"

	"mimic-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleServiceError транслирует ошибки сервиса в HTTP-статусы. Повторяемость
// отдается флагом в теле: лимит запросов и недоступность модели клиент может
// повторить, структурные отказы — нет.
func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp errorResponse

	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		statusCode = http.StatusNotFound
		errResp = errorResponse{Error: "Game session not found"}
	case errors.Is(err, models.ErrGameComplete):
		statusCode = http.StatusConflict
		errResp = errorResponse{Error: "Game already complete"}
	case errors.Is(err, models.ErrGameNotComplete):
		statusCode = http.StatusConflict
		errResp = errorResponse{Error: "Game not complete"}
	case errors.Is(err, models.ErrEmptyPath):
		statusCode = http.StatusBadRequest
		errResp = errorResponse{Error: "Nothing to undo"}
	case errors.Is(err, models.ErrRateLimited):
		statusCode = http.StatusTooManyRequests
		errResp = errorResponse{Error: "Rate limit reached. Please wait a moment and try again.", Retryable: true}
	case errors.Is(err, models.ErrMalformedScoreResponse):
		statusCode = http.StatusBadGateway
		errResp = errorResponse{Error: "Scoring backend returned an unusable response"}
	case errors.Is(err, models.ErrAIUnavailable):
		statusCode = http.StatusBadGateway
		errResp = errorResponse{Error: "Generation backend is unavailable. Please try again.", Retryable: true}
	default:
		zap.L().Error("Необработанная ошибка сервиса", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = errorResponse{Error: "An unexpected internal error occurred"}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}

package handler

import "mimic-server/internal/models"

type selectWordRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Word      string `json:"word" binding:"required"`
}

type undoRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

type reactionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

type startGameResponse struct {
	Success   bool     `json:"success"`
	SessionID string   `json:"session_id"`
	Question  string   `json:"question"`
	Choices   []string `json:"initial_choices"`
}

type turnResponse struct {
	Success     bool     `json:"success"`
	Path        []string `json:"path"`
	NextChoices []string `json:"next_choices,omitempty"`
	IsComplete  bool     `json:"is_complete"`
}

type scoreResponse struct {
	Success bool              `json:"success"`
	Score   *models.GameScore `json:"score"`
}

type reactionResponse struct {
	Success  bool            `json:"success"`
	Reaction models.Reaction `json:"reaction"`
}

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

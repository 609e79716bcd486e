package models

import "errors"

// Application-wide standard errors
var (
	// Session lifecycle errors
	ErrSessionNotFound = errors.New("game session not found")
	ErrGameComplete    = errors.New("game already complete")
	ErrGameNotComplete = errors.New("game not complete")
	ErrEmptyPath       = errors.New("path is empty, nothing to undo")

	// Upstream (LLM backend) errors
	ErrRateLimited   = errors.New("ai backend rate limit reached")
	ErrAIUnavailable = errors.New("ai backend unavailable")

	// ErrMalformedScoreResponse - бэкенд вернул оценку, которая не парсится в
	// ожидаемую структуру. Жёсткая ошибка: битая оценка не должна
	// маскироваться под валидную.
	ErrMalformedScoreResponse = errors.New("malformed score response from ai backend")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
)

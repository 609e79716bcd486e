package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mimic-server/internal/config"
	"mimic-server/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openaigo "github.com/sashabaranov/go-openai"
)

var log = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mimic_ai_requests_total",
			Help: "Total number of requests to the AI API.",
		},
		[]string{"model", "op", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mimic_ai_request_duration_seconds",
			Help:    "Histogram of AI API request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model", "op"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mimic_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(50, 50, 20),
		},
		[]string{"model"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mimic_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(10, 10, 20),
		},
		[]string{"model"},
	)
)

// WordCandidate - одно ранжированное слово-кандидат следующей позиции ответа.
// Probability - вероятность модели (exp от logprob), без ренормализации.
type WordCandidate struct {
	Word        string
	Probability float64
}

// AIClient - интерфейс шлюза к текстовым генеративным бэкендам.
// Весь retry/форматирование изолированы здесь; остальной системе
// возвращаются только чистые данные.
type AIClient interface {
	// GenerateQuestion генерирует естественный вопрос пользователя по теме.
	// Ошибки бэкенда пробрасываются без локальных повторов.
	GenerateQuestion(ctx context.Context, topicPrompt string, maxWords int) (string, error)

	// GetNextWordChoices возвращает до 5 ранжированных кандидатов следующего
	// слова. Сбои бэкенда поглощаются fallback-набором связок; наружу
	// выходит только models.ErrRateLimited, чтобы движок мог вернуть
	// игроку повторяемую ошибку.
	GetNextWordChoices(ctx context.Context, question string, path []string, maxWords int) ([]WordCandidate, error)

	// PunctuatePath расставляет знаки препинания в ответе, не меняя слова.
	// Чисто косметическая операция.
	PunctuatePath(ctx context.Context, path []string) (string, error)

	// ScorePath оценивает тематическую близость и адекватность ответа.
	// Некорректный payload оценки - жёсткая ошибка ErrMalformedScoreResponse.
	ScorePath(ctx context.Context, question string, path []string, maxWords int) (int, string, error)

	// GenerateReaction генерирует эмоциональную реакцию "пользователя"
	// на текущий ответ.
	GenerateReaction(ctx context.Context, answerSoFar string, isComplete bool) (models.Reaction, error)
}

// New создает клиента выбранного провайдера.
func New(cfg *config.Config) (AIClient, error) {
	switch cfg.AIProvider {
	case "openai":
		return newOpenAIClient(cfg)
	case "ollama":
		return newOllamaClient(cfg)
	default:
		return nil, fmt.Errorf("неизвестный AI провайдер: %s", cfg.AIProvider)
	}
}

// fallbackWords - пул связок, выдаваемый при деградации, чтобы игра
// не останавливалась из-за сбоя бэкенда.
var fallbackWords = []string{"and", "the", "to", "a", "in", "for", "with", "on", "of"}

// fallbackProbability - номинальная вероятность слов из fallback-пула.
const fallbackProbability = 0.05

func fallbackCandidates() []WordCandidate {
	out := make([]WordCandidate, 0, maxCandidates)
	for _, w := range fallbackWords[:maxCandidates] {
		out = append(out, WordCandidate{Word: w, Probability: fallbackProbability})
	}
	return out
}

// maxCandidates - максимум ранжированных кандидатов на советника за ход.
const maxCandidates = 5

// classifyAPIError переводит ошибку бэкенда в ошибку приложения,
// отличая исчерпание rate limit от прочих сбоев.
func classifyAPIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openaigo.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
		return fmt.Errorf("%w: %v", models.ErrRateLimited, err)
	}
	var reqErr *openaigo.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == 429 {
		return fmt.Errorf("%w: %v", models.ErrRateLimited, err)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests") {
		return fmt.Errorf("%w: %v", models.ErrRateLimited, err)
	}

	return fmt.Errorf("%w: %v", models.ErrAIUnavailable, err)
}

package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mimic-server/internal/config"
	"mimic-server/internal/models"

	"github.com/ollama/ollama/api"
	"github.com/prometheus/client_golang/prometheus"
)

// ollamaClient реализует AIClient поверх локального Ollama. Ollama не отдает
// top_logprobs, поэтому кандидаты следующего слова запрашиваются явным
// списком, а вероятности назначаются по убыванию ранга.
type ollamaClient struct {
	client       *api.Client
	model        string
	scoringModel string
	timeout      time.Duration
}

// ollamaRankProbabilities - номинальные вероятности для ранжированного списка
// без настоящих logprobs: ранг 0 считается "лучшим" выбором хода.
var ollamaRankProbabilities = []float64{0.60, 0.45, 0.34, 0.25, 0.19}

func newOllamaClient(cfg *config.Config) (AIClient, error) {
	// api.NewClient требует URL без суффикса /v1
	baseURL := strings.TrimSuffix(cfg.AIBaseURL, "/v1")
	baseURL = strings.TrimSuffix(baseURL, "/")

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга Ollama Base URL %q: %w", baseURL, err)
	}

	client := api.NewClient(parsedURL, &http.Client{Timeout: cfg.AITimeout})

	log.Info().Str("baseURL", baseURL).Str("model", cfg.AIModel).Msg("Ollama клиент создан")

	return &ollamaClient{
		client:       client,
		model:        cfg.AIModel,
		scoringModel: cfg.AIScoringModel,
		timeout:      cfg.AITimeout,
	}, nil
}

// chat выполняет один нестриминговый chat-запрос к Ollama и пишет метрики.
func (c *ollamaClient) chat(ctx context.Context, op, model, systemPrompt, userPrompt string, temperature float64) (string, error) {
	messages := []api.Message{}
	if systemPrompt != "" {
		messages = append(messages, api.Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, api.Message{Role: "user", Content: userPrompt})

	stream := false
	req := &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": temperature,
		},
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var resp api.ChatResponse
	startTime := time.Now()
	err := c.client.Chat(requestCtx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		log.Error().Err(err).Str("op", op).Str("model", model).Dur("duration", duration).Msg("Ошибка от Ollama API")
		aiRequestsTotal.With(prometheus.Labels{"model": model, "op": op, "status": "error"}).Inc()
		return "", classifyAPIError(err)
	}
	if resp.Message.Content == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": model, "op": op, "status": "error_empty_response"}).Inc()
		return "", fmt.Errorf("%w: пустой ответ от Ollama", models.ErrAIUnavailable)
	}

	aiRequestsTotal.With(prometheus.Labels{"model": model, "op": op, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": model, "op": op}).Observe(duration.Seconds())
	if resp.PromptEvalCount+resp.EvalCount > 0 {
		aiPromptTokens.With(prometheus.Labels{"model": model}).Observe(float64(resp.PromptEvalCount))
		aiCompletionTokens.With(prometheus.Labels{"model": model}).Observe(float64(resp.EvalCount))
	}

	return resp.Message.Content, nil
}

func (c *ollamaClient) GenerateQuestion(ctx context.Context, topicPrompt string, maxWords int) (string, error) {
	text, err := c.chat(ctx, "generate_question", c.model, "", buildQuestionPrompt(topicPrompt, maxWords), 0.9)
	if err != nil {
		return "", err
	}
	return stripWrappingQuotes(text), nil
}

func (c *ollamaClient) GetNextWordChoices(ctx context.Context, question string, path []string, maxWords int) ([]WordCandidate, error) {
	text, err := c.chat(ctx, "next_word", c.model, "", buildNextWordsListPrompt(question, path, maxWords), 0.9)
	if err != nil {
		if errors.Is(err, models.ErrRateLimited) {
			return nil, err
		}
		log.Warn().Err(err).Msg("Сбой генерации кандидатов, используем fallback-набор")
		return fallbackCandidates(), nil
	}

	words := parseWordList(text, maxCandidates)
	if len(words) == 0 {
		return fallbackCandidates(), nil
	}

	out := make([]WordCandidate, 0, len(words))
	for i, w := range words {
		out = append(out, WordCandidate{Word: w, Probability: ollamaRankProbabilities[i]})
	}
	return out, nil
}

func (c *ollamaClient) PunctuatePath(ctx context.Context, path []string) (string, error) {
	text, err := c.chat(ctx, "punctuate", c.model, "", buildPunctuatePrompt(path), 0.2)
	if err != nil {
		return "", err
	}
	return stripWrappingQuotes(text), nil
}

func (c *ollamaClient) ScorePath(ctx context.Context, question string, path []string, maxWords int) (int, string, error) {
	text, err := c.chat(ctx, "score", c.scoringModel, "", buildScorePrompt(question, path, maxWords), 0.3)
	if err != nil {
		return 0, "", err
	}
	return parseScorePayload(text)
}

func (c *ollamaClient) GenerateReaction(ctx context.Context, answerSoFar string, isComplete bool) (models.Reaction, error) {
	text, err := c.chat(ctx, "reaction", c.model, "", buildReactionPrompt(answerSoFar, isComplete), 0.8)
	if err != nil {
		return models.ReactionAppreciation, nil
	}
	return parseReaction(text), nil
}

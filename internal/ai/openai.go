package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"mimic-server/internal/config"
	"mimic-server/internal/models"

	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	openaigo "github.com/sashabaranov/go-openai"
)

// topLogProbsRequested - сколько альтернатив первого токена запрашиваем у
// бэкенда. Берем с запасом: часть кандидатов не переживёт фильтры.
const topLogProbsRequested = 10

// openAIClient реализует AIClient поверх любого OpenAI-совместимого API
// (Groq, OpenRouter, OpenAI). Ранжирование следующих слов построено на
// top_logprobs первого сгенерированного токена.
type openAIClient struct {
	client          *openaigo.Client
	model           string
	scoringModel    string
	completionModel string
	timeout         time.Duration
}

func newOpenAIClient(cfg *config.Config) (AIClient, error) {
	if cfg.AIAPIKey == "" {
		return nil, errors.New("не указан API ключ для AI бэкенда")
	}

	clientConfig := openaigo.DefaultConfig(cfg.AIAPIKey)
	if cfg.AIBaseURL != "" {
		clientConfig.BaseURL = cfg.AIBaseURL
	}

	log.Info().
		Str("baseURL", clientConfig.BaseURL).
		Str("model", cfg.AIModel).
		Str("scoringModel", cfg.AIScoringModel).
		Msg("OpenAI-совместимый клиент создан")

	return &openAIClient{
		client:          openaigo.NewClientWithConfig(clientConfig),
		model:           cfg.AIModel,
		scoringModel:    cfg.AIScoringModel,
		completionModel: cfg.AICompletionModel,
		timeout:         cfg.AITimeout,
	}, nil
}

// chat выполняет один запрос chat completion и записывает метрики.
func (c *openAIClient) chat(ctx context.Context, op string, req openaigo.ChatCompletionRequest) (openaigo.ChatCompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(startTime)

	if err != nil {
		log.Error().Err(err).Str("op", op).Str("model", req.Model).Dur("duration", duration).Msg("Ошибка при вызове CreateChatCompletion")
		aiRequestsTotal.With(prometheus.Labels{"model": req.Model, "op": op, "status": "error"}).Inc()
		return resp, classifyAPIError(err)
	}
	if len(resp.Choices) == 0 {
		aiRequestsTotal.With(prometheus.Labels{"model": req.Model, "op": op, "status": "error_empty_response"}).Inc()
		return resp, fmt.Errorf("%w: пустой ответ от API", models.ErrAIUnavailable)
	}

	aiRequestsTotal.With(prometheus.Labels{"model": req.Model, "op": op, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": req.Model, "op": op}).Observe(duration.Seconds())
	c.observeUsage(req, resp)

	return resp, nil
}

// observeUsage пишет гистограммы токенов. Если бэкенд не вернул usage,
// оцениваем количество токенов через tiktoken (как минимум для логов
// стоимости это лучше, чем ничего).
func (c *openAIClient) observeUsage(req openaigo.ChatCompletionRequest, resp openaigo.ChatCompletionResponse) {
	promptTokens := resp.Usage.PromptTokens
	completionTokens := resp.Usage.CompletionTokens

	if resp.Usage.TotalTokens == 0 {
		tke, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return
		}
		for _, m := range req.Messages {
			promptTokens += len(tke.Encode(m.Content, nil, nil))
		}
		completionTokens = len(tke.Encode(resp.Choices[0].Message.Content, nil, nil))
	}

	aiPromptTokens.With(prometheus.Labels{"model": req.Model}).Observe(float64(promptTokens))
	aiCompletionTokens.With(prometheus.Labels{"model": req.Model}).Observe(float64(completionTokens))
}

// GenerateQuestion генерирует вопрос пользователя по теме промпта.
func (c *openAIClient) GenerateQuestion(ctx context.Context, topicPrompt string, maxWords int) (string, error) {
	prompt := buildQuestionPrompt(topicPrompt, maxWords)

	resp, err := c.chat(ctx, "generate_question", openaigo.ChatCompletionRequest{
		Model: c.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.9,
		MaxTokens:   120,
	})
	if err != nil {
		return "", err
	}

	question := stripWrappingQuotes(resp.Choices[0].Message.Content)
	log.Info().Str("question", question).Msg("Вопрос сгенерирован")
	return question, nil
}

// GetNextWordChoices возвращает до 5 ранжированных кандидатов следующего слова.
// Ответ продолжается от лица ассистента: путь игрока подставляется как уже
// написанная часть ответа, поэтому токены новых слов приходят с ведущим
// пробелом, а токены-продолжения предыдущего слова - без него.
func (c *openAIClient) GetNextWordChoices(ctx context.Context, question string, path []string, maxWords int) ([]WordCandidate, error) {
	systemPrompt := buildNextWordsSystemPrompt(maxWords, maxWords-len(path))

	messages := []openaigo.ChatCompletionMessage{
		{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openaigo.ChatMessageRoleUser, Content: question},
	}
	if len(path) > 0 {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:    openaigo.ChatMessageRoleAssistant,
			Content: strings.Join(path, " "),
		})
	}

	resp, err := c.chat(ctx, "next_word", openaigo.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.9,
		MaxTokens:   4,
		LogProbs:    true,
		TopLogProbs: topLogProbsRequested,
	})
	if err != nil {
		// Rate limit пробрасываем наружу, чтобы движок вернул игроку
		// повторяемую ошибку; остальное деградирует до fallback-набора.
		if errors.Is(err, models.ErrRateLimited) {
			return nil, err
		}
		log.Warn().Err(err).Msg("Сбой генерации кандидатов, используем fallback-набор")
		return fallbackCandidates(), nil
	}

	choice := resp.Choices[0]
	if choice.LogProbs == nil || len(choice.LogProbs.Content) == 0 {
		log.Warn().Str("model", c.model).Msg("Бэкенд не вернул logprobs, используем fallback-набор")
		return fallbackCandidates(), nil
	}

	candidates := c.rankCandidates(ctx, choice.LogProbs.Content, len(path) > 0)
	if len(candidates) == 0 {
		return fallbackCandidates(), nil
	}
	return candidates, nil
}

// rankCandidates превращает top_logprobs первого токена в отфильтрованный
// ранжированный список слов. midAnswer == true, когда путь непустой и токены
// без ведущего пробела продолжали бы предыдущее слово.
func (c *openAIClient) rankCandidates(ctx context.Context, content []openaigo.LogProb, midAnswer bool) []WordCandidate {
	top := content[0].TopLogProbs

	// Наблюдали ли мы, что сама модель продолжила свой топовый токен?
	// Тогда этот токен - заведомо фрагмент слова.
	topTokenContinued := len(content) > 1 &&
		content[1].Token != "" &&
		!strings.HasPrefix(content[1].Token, " ")

	type rankedWord struct {
		word     string
		prob     float64
		fragment bool
	}

	var ranked []rankedWord
	seen := make(map[string]int) // lowercased word -> index in ranked

	for _, alt := range top {
		if midAnswer && !strings.HasPrefix(alt.Token, " ") {
			// Токен без ведущего пробела посреди ответа доклеивается к
			// предыдущему слову - это не кандидат следующего слова.
			continue
		}
		word, ok := normalizeCandidate(alt.Token)
		if !ok {
			continue
		}
		prob := math.Exp(alt.LogProb)
		fragment := looksLikeFragment(word) ||
			(topTokenContinued && alt.Token == content[0].Token)

		key := strings.ToLower(word)
		if idx, dup := seen[key]; dup {
			if prob > ranked[idx].prob {
				ranked[idx].prob = prob
			}
			continue
		}
		seen[key] = len(ranked)
		ranked = append(ranked, rankedWord{word: word, prob: prob, fragment: fragment})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].prob > ranked[j].prob })
	if len(ranked) > maxCandidates {
		ranked = ranked[:maxCandidates]
	}

	// Второй проход: все фрагменты достраиваются одним батчевым запросом.
	var fragments []string
	for _, r := range ranked {
		if r.fragment {
			fragments = append(fragments, r.word)
		}
	}
	completions := map[string]string{}
	if len(fragments) > 0 {
		completions = c.completeFragments(ctx, fragments)
	}

	out := make([]WordCandidate, 0, len(ranked))
	for _, r := range ranked {
		word := r.word
		if r.fragment {
			completed, ok := completions[word]
			if !ok {
				continue
			}
			word = completed
		}
		out = append(out, WordCandidate{Word: word, Probability: r.prob})
	}
	return out
}

// completeFragments достраивает обрубки токенов до целых слов одним запросом
// к дешёвой модели. Порядок ответа соответствует порядку фрагментов; каждая
// достройка перепроверяется теми же фильтрами. Сбой этого запроса не фатален:
// фрагменты просто выпадают из выдачи.
func (c *openAIClient) completeFragments(ctx context.Context, fragments []string) map[string]string {
	prompt := fmt.Sprintf(
		"Each item below is the beginning of a single English word. Complete each into exactly one whole word. Reply with ONLY the completed words, comma-separated, in the same order, nothing else.\n\n%s",
		strings.Join(fragments, ", "),
	)

	resp, err := c.chat(ctx, "complete_fragments", openaigo.ChatCompletionRequest{
		Model: c.completionModel,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
		MaxTokens:   60,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Сбой достройки фрагментов, кандидаты будут отброшены")
		return nil
	}

	words := parseWordList(resp.Choices[0].Message.Content, len(fragments))
	out := make(map[string]string, len(words))
	for i, w := range words {
		if i >= len(fragments) {
			break
		}
		// Достройка обязана начинаться с исходного фрагмента, иначе модель
		// подменила слово.
		if !strings.HasPrefix(strings.ToLower(w), strings.ToLower(fragments[i])) {
			continue
		}
		out[fragments[i]] = w
	}
	return out
}

// PunctuatePath расставляет пунктуацию в ответе игрока, не меняя самих слов.
func (c *openAIClient) PunctuatePath(ctx context.Context, path []string) (string, error) {
	prompt := buildPunctuatePrompt(path)

	resp, err := c.chat(ctx, "punctuate", openaigo.ChatCompletionRequest{
		Model: c.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
		MaxTokens:   200,
	})
	if err != nil {
		return "", err
	}

	return stripWrappingQuotes(resp.Choices[0].Message.Content), nil
}

// ScorePath запрашивает у скоринговой модели численную оценку ответа.
func (c *openAIClient) ScorePath(ctx context.Context, question string, path []string, maxWords int) (int, string, error) {
	prompt := buildScorePrompt(question, path, maxWords)

	resp, err := c.chat(ctx, "score", openaigo.ChatCompletionRequest{
		Model: c.scoringModel,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   300,
	})
	if err != nil {
		return 0, "", err
	}

	return parseScorePayload(resp.Choices[0].Message.Content)
}

// GenerateReaction генерирует реакцию "пользователя" на текущий ответ.
// На сбое бэкенда возвращает appreciation: реакция чисто декоративна.
func (c *openAIClient) GenerateReaction(ctx context.Context, answerSoFar string, isComplete bool) (models.Reaction, error) {
	prompt := buildReactionPrompt(answerSoFar, isComplete)

	resp, err := c.chat(ctx, "reaction", openaigo.ChatCompletionRequest{
		Model: c.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.8,
		MaxTokens:   10,
	})
	if err != nil {
		return models.ReactionAppreciation, nil
	}

	return parseReaction(resp.Choices[0].Message.Content), nil
}

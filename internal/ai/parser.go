package ai

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"mimic-server/internal/models"
)

// trailingPunctuation - знаки, отрезаемые с конца токена-кандидата.
const trailingPunctuation = ".,!?;:\"'`)]}"

// stripWrappingQuotes убирает обрамляющие кавычки из сгенерированного текста.
func stripWrappingQuotes(s string) string {
	s = strings.TrimSpace(s)
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return s
}

// normalizeCandidate приводит сырой токен к чистому одиночному слову.
// Возвращает false, если токен непригоден как кандидат: пустой, чистая
// пунктуация, голое число, служебный маркер или одиночный символ
// (кроме местоимённых однобуквенных слов).
func normalizeCandidate(raw string) (string, bool) {
	word := strings.TrimSpace(raw)
	if word == "" {
		return "", false
	}

	// Служебные маркеры модели: <|eot_id|>, [end] и подобные.
	if strings.Contains(word, "<|") || strings.Contains(word, "|>") {
		return "", false
	}
	if strings.HasPrefix(word, "[") && strings.HasSuffix(word, "]") {
		return "", false
	}

	// Берем только первое слово, если токен содержит несколько.
	if fields := strings.Fields(word); len(fields) > 0 {
		word = fields[0]
	}

	word = strings.TrimRight(word, trailingPunctuation)
	if word == "" {
		return "", false
	}

	hasLetter := false
	allDigits := true
	for _, r := range word {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		if !unicode.IsDigit(r) {
			allDigits = false
		}
	}
	if !hasLetter || allDigits {
		return "", false
	}

	if len(word) == 1 {
		switch word {
		case "I", "i", "a", "A":
			// Однобуквенные местоимения/артикли допустимы как целые слова.
		default:
			return "", false
		}
	}

	return word, true
}

// looksLikeFragment определяет, похож ли кандидат на обрубок слова,
// требующий достройки вторым проходом. Токены без единой гласной
// (включая y) целыми английскими словами не бывают.
func looksLikeFragment(word string) bool {
	if len(word) <= 1 {
		return false
	}
	for _, r := range strings.ToLower(word) {
		switch r {
		case 'a', 'e', 'i', 'o', 'u', 'y':
			return false
		}
	}
	return true
}

// parseWordList разбирает ответ вида "word1, word2, word3" в срез чистых
// слов, прогоняя каждый элемент через фильтры кандидатов.
func parseWordList(text string, limit int) []string {
	var words []string
	for _, part := range strings.Split(strings.TrimSpace(text), ",") {
		word, ok := normalizeCandidate(part)
		if !ok {
			continue
		}
		words = append(words, word)
		if limit > 0 && len(words) >= limit {
			break
		}
	}
	return words
}

// scorePayload - строгая схема ответа оценки.
type scorePayload struct {
	Score    *int   `json:"score"`
	Analysis string `json:"analysis"`
}

// parseScorePayload разбирает JSON-оценку из ответа модели. Markdown-ограждения
// допустимы, все остальное - ErrMalformedScoreResponse: битая оценка не должна
// выдаваться за настоящую.
func parseScorePayload(text string) (int, string, error) {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	var payload scorePayload
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return 0, "", fmt.Errorf("%w: %v", models.ErrMalformedScoreResponse, err)
	}
	if payload.Score == nil {
		return 0, "", fmt.Errorf("%w: отсутствует поле score", models.ErrMalformedScoreResponse)
	}
	score := *payload.Score
	if score < 0 || score > 100 {
		return 0, "", fmt.Errorf("%w: score %d вне диапазона [0,100]", models.ErrMalformedScoreResponse, score)
	}
	return score, payload.Analysis, nil
}

// parseReaction сводит произвольный текст модели к одной из трёх реакций.
// По умолчанию - appreciation.
func parseReaction(text string) models.Reaction {
	lower := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.Contains(lower, string(models.ReactionDislike)):
		return models.ReactionDislike
	case strings.Contains(lower, string(models.ReactionConfused)):
		return models.ReactionConfused
	default:
		return models.ReactionAppreciation
	}
}

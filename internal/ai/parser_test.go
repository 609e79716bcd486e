package ai

import (
	"errors"
	"testing"

	"mimic-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCandidate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"просто слово", "hello", "hello", true},
		{"с ведущим пробелом", " hello", "hello", true},
		{"хвостовая пунктуация", " world.", "world", true},
		{"несколько знаков в хвосте", `day."`, "day", true},
		{"чистая пунктуация", " ...", "", false},
		{"пустой токен", "   ", "", false},
		{"голая цифра", "7", "", false},
		{"голое число", "2024", "", false},
		{"служебный маркер", "<|eot_id|>", "", false},
		{"маркер в скобках", "[end]", "", false},
		{"одиночная буква I", "I", "I", true},
		{"одиночный артикль a", " a", "a", true},
		{"прочая одиночная буква", "x", "", false},
		{"берется только первое слово", "hello world", "hello", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := normalizeCandidate(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestLooksLikeFragment(t *testing.T) {
	// Токены без гласных - обрубки слов
	assert.True(t, looksLikeFragment("str"))
	assert.True(t, looksLikeFragment("pr"))

	assert.False(t, looksLikeFragment("try"))
	assert.False(t, looksLikeFragment("the"))
	assert.False(t, looksLikeFragment("a"))
	assert.False(t, looksLikeFragment("I"))
}

func TestParseWordList(t *testing.T) {
	words := parseWordList("help, assist, today", 5)
	assert.Equal(t, []string{"help", "assist", "today"}, words)

	t.Run("лимит обрезает хвост", func(t *testing.T) {
		words := parseWordList("one, two, three, four, five, six", 5)
		assert.Len(t, words, 5)
	})

	t.Run("мусорные элементы выпадают", func(t *testing.T) {
		words := parseWordList("the, ..., 42, [end], cat", 5)
		assert.Equal(t, []string{"the", "cat"}, words)
	})
}

func TestStripWrappingQuotes(t *testing.T) {
	assert.Equal(t, "How do I cook pasta?", stripWrappingQuotes(`"How do I cook pasta?"`))
	assert.Equal(t, "plain text", stripWrappingQuotes("plain text"))
	assert.Equal(t, "nested", stripWrappingQuotes(`"'nested'"`))
}

func TestParseScorePayload(t *testing.T) {
	t.Run("валидный JSON", func(t *testing.T) {
		score, analysis, err := parseScorePayload(`{"score": 72, "analysis": "Mostly on topic."}`)
		require.NoError(t, err)
		assert.Equal(t, 72, score)
		assert.Equal(t, "Mostly on topic.", analysis)
	})

	t.Run("markdown-ограждение допустимо", func(t *testing.T) {
		score, _, err := parseScorePayload("```json\n{\"score\": 55, \"analysis\": \"ok\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, 55, score)
	})

	t.Run("не JSON - жёсткая ошибка", func(t *testing.T) {
		_, _, err := parseScorePayload("I'd rate this a solid 80 out of 100!")
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrMalformedScoreResponse))
	})

	t.Run("score вне диапазона", func(t *testing.T) {
		_, _, err := parseScorePayload(`{"score": 150, "analysis": "way too generous"}`)
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrMalformedScoreResponse))
	})

	t.Run("отсутствующий score", func(t *testing.T) {
		_, _, err := parseScorePayload(`{"analysis": "no number"}`)
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrMalformedScoreResponse))
	})
}

func TestParseReaction(t *testing.T) {
	assert.Equal(t, models.ReactionDislike, parseReaction("Dislike."))
	assert.Equal(t, models.ReactionConfused, parseReaction("I think: confused"))
	assert.Equal(t, models.ReactionAppreciation, parseReaction("appreciation"))
	// Непонятный ответ сводится к appreciation
	assert.Equal(t, models.ReactionAppreciation, parseReaction("42"))
}

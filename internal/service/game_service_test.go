package service

import (
	"context"
	"testing"
	"time"

	"mimic-server/internal/ai"
	"mimic-server/internal/ai/mocks"
	"mimic-server/internal/config"
	"mimic-server/internal/models"
	"mimic-server/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		MaxPathLength: 12,
		SessionTTL:    30 * time.Minute,
	}
}

func newTestService(t *testing.T, cfg *config.Config) (GameService, *mocks.MockAIClient, store.SessionStore) {
	t.Helper()
	aiClient := mocks.NewMockAIClient(t)
	sessionStore := store.NewMemoryStore(cfg.SessionTTL, zap.NewNop())
	svc := NewGameService(aiClient, sessionStore, cfg, zap.NewNop())
	return svc, aiClient, sessionStore
}

// seedSession кладет в хранилище сессию с одним набором слов текущего хода.
func seedSession(sessionStore store.SessionStore, choices models.TurnChoiceSet) *models.GameSession {
	session := &models.GameSession{
		SessionID:     "session-1",
		RealQuestion:  "real question?",
		FakeQuestionA: "fake question A?",
		FakeQuestionB: "fake question B?",
		Path:          []string{},
		CreatedAt:     time.Now(),
	}
	if choices != nil {
		session.ChoiceHistory = []models.TurnChoiceSet{choices}
	}
	sessionStore.Create(session)
	return session
}

func TestStartGame_Success(t *testing.T) {
	svc, aiClient, sessionStore := newTestService(t, testConfig())

	aiClient.On("GenerateQuestion", mock.Anything, mock.Anything, 12).
		Return("What is the meaning of life?", nil).Times(3)
	aiClient.On("GetNextWordChoices", mock.Anything, "What is the meaning of life?", mock.Anything, 12).
		Return([]ai.WordCandidate{
			{Word: "life", Probability: 0.8},
			{Word: "meaning", Probability: 0.5},
		}, nil).Times(3)

	result, err := svc.StartGame(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.SessionID)
	assert.Equal(t, "What is the meaning of life?", result.Question)
	// Три советника вернули одни и те же слова, после дедупликации остаются два.
	assert.ElementsMatch(t, []string{"life", "meaning"}, result.Choices)

	session, ok := sessionStore.Get(result.SessionID)
	require.True(t, ok)
	require.Len(t, session.ChoiceHistory, 1)
	assert.Len(t, session.ChoiceHistory[0], 6)

	// У подставных советников вероятности обнулены.
	for _, choice := range session.ChoiceHistory[0] {
		if choice.Source != models.SourceReal {
			assert.Zero(t, choice.Probability)
		}
	}

	aiClient.AssertExpectations(t)
}

func TestStartGame_QuestionGenerationFails(t *testing.T) {
	svc, aiClient, _ := newTestService(t, testConfig())

	aiClient.On("GenerateQuestion", mock.Anything, mock.Anything, 12).
		Return("", models.ErrAIUnavailable)

	result, err := svc.StartGame(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrAIUnavailable)
}

func TestSelectWord_BestChoiceFullCredit(t *testing.T) {
	svc, aiClient, sessionStore := newTestService(t, testConfig())
	session := seedSession(sessionStore, models.TurnChoiceSet{
		{Word: "sky", Source: models.SourceReal, Probability: 0.8},
		{Word: "sea", Source: models.SourceReal, Probability: 0.5},
		{Word: "sky", Source: models.SourceFakeA, Probability: 0},
	})

	aiClient.On("GetNextWordChoices", mock.Anything, mock.Anything, mock.Anything, 12).
		Return([]ai.WordCandidate{{Word: "is", Probability: 0.9}}, nil).Times(3)

	result, err := svc.SelectWord(context.Background(), session.SessionID, "sky")
	require.NoError(t, err)

	assert.Equal(t, []string{"sky"}, result.Path)
	assert.False(t, result.IsComplete)
	assert.NotEmpty(t, result.NextChoices)

	assert.Equal(t, 1.0, session.BestSteps)
	assert.Equal(t, 1, session.TotalSteps)
	require.Len(t, session.StepCredits, 1)
	assert.Equal(t, 1.0, session.StepCredits[0])
	assert.Len(t, session.ChoiceHistory, 2)
}

func TestSelectWord_SuboptimalChoicePartialCredit(t *testing.T) {
	svc, aiClient, sessionStore := newTestService(t, testConfig())
	session := seedSession(sessionStore, models.TurnChoiceSet{
		{Word: "sky", Source: models.SourceReal, Probability: 0.8},
		{Word: "sea", Source: models.SourceReal, Probability: 0.5},
	})

	aiClient.On("GetNextWordChoices", mock.Anything, mock.Anything, mock.Anything, 12).
		Return([]ai.WordCandidate{{Word: "is", Probability: 0.9}}, nil).Times(3)

	_, err := svc.SelectWord(context.Background(), session.SessionID, "sea")
	require.NoError(t, err)

	// 1 - (0.8 - 0.5) = 0.7
	assert.InDelta(t, 0.7, session.BestSteps, 1e-9)
	assert.Equal(t, 1, session.TotalSteps)
}

func TestSelectWord_NoAdvisorDataSkipsCredit(t *testing.T) {
	svc, aiClient, sessionStore := newTestService(t, testConfig())
	session := seedSession(sessionStore, models.TurnChoiceSet{
		{Word: "sky", Source: models.SourceFakeA, Probability: 0},
		{Word: "sea", Source: models.SourceFakeB, Probability: 0},
	})

	aiClient.On("GetNextWordChoices", mock.Anything, mock.Anything, mock.Anything, 12).
		Return([]ai.WordCandidate{{Word: "is", Probability: 0.9}}, nil).Times(3)

	_, err := svc.SelectWord(context.Background(), session.SessionID, "sky")
	require.NoError(t, err)

	// Максимальная вероятность хода равна нулю, шаг не оценивается.
	assert.Zero(t, session.BestSteps)
	assert.Equal(t, 1, session.TotalSteps)
	assert.Equal(t, []float64{0}, session.StepCredits)
}

func TestSelectWord_SubmitSentinel(t *testing.T) {
	svc, _, sessionStore := newTestService(t, testConfig())
	session := seedSession(sessionStore, models.TurnChoiceSet{
		{Word: "sky", Source: models.SourceReal, Probability: 0.8},
	})
	session.Path = []string{"the", "sky"}

	result, err := svc.SelectWord(context.Background(), session.SessionID, models.SubmitSentinel)
	require.NoError(t, err)

	assert.True(t, result.IsComplete)
	assert.Equal(t, []string{"the", "sky"}, result.Path)
	assert.True(t, session.IsComplete)
	// Сентинел не добавляется в путь и не трогает счетчики.
	assert.Len(t, session.Path, 2)
	assert.Zero(t, session.TotalSteps)
}

func TestSelectWord_MaxPathLengthCompletes(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPathLength = 2
	svc, aiClient, sessionStore := newTestService(t, cfg)
	session := seedSession(sessionStore, models.TurnChoiceSet{
		{Word: "sky", Source: models.SourceReal, Probability: 0.8},
	})
	session.Path = []string{"the"}

	result, err := svc.SelectWord(context.Background(), session.SessionID, "sky")
	require.NoError(t, err)

	assert.True(t, result.IsComplete)
	assert.Equal(t, []string{"the", "sky"}, result.Path)
	assert.Empty(t, result.NextChoices)
	// После завершения новых наборов не генерируется.
	aiClient.AssertNotCalled(t, "GetNextWordChoices", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSelectWord_CompletedSessionRejected(t *testing.T) {
	svc, _, sessionStore := newTestService(t, testConfig())
	session := seedSession(sessionStore, nil)
	session.IsComplete = true

	_, err := svc.SelectWord(context.Background(), session.SessionID, "sky")
	assert.ErrorIs(t, err, models.ErrGameComplete)
}

func TestSelectWord_UnknownSession(t *testing.T) {
	svc, _, _ := newTestService(t, testConfig())

	_, err := svc.SelectWord(context.Background(), "missing", "sky")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestSelectWord_RateLimitKeepsCommittedPick(t *testing.T) {
	svc, aiClient, sessionStore := newTestService(t, testConfig())
	session := seedSession(sessionStore, models.TurnChoiceSet{
		{Word: "sky", Source: models.SourceReal, Probability: 0.8},
	})

	aiClient.On("GetNextWordChoices", mock.Anything, mock.Anything, mock.Anything, 12).
		Return(nil, models.ErrRateLimited).Times(3)

	_, err := svc.SelectWord(context.Background(), session.SessionID, "sky")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrRateLimited)

	// Выбор игрока зафиксирован несмотря на отказ генерации.
	assert.Equal(t, []string{"sky"}, session.Path)
	assert.Equal(t, 1, session.TotalSteps)
	assert.Equal(t, 1.0, session.BestSteps)
	assert.Len(t, session.ChoiceHistory, 1)
}

func TestUndoLastWord_RollsBackState(t *testing.T) {
	svc, aiClient, sessionStore := newTestService(t, testConfig())
	session := seedSession(sessionStore, models.TurnChoiceSet{
		{Word: "sky", Source: models.SourceReal, Probability: 0.8},
	})
	session.Path = []string{"the", "sky"}
	session.CurrentTurn = 2
	session.TotalSteps = 2
	session.BestSteps = 1.7
	session.StepCredits = []float64{1.0, 0.7}
	session.ChoiceHistory = []models.TurnChoiceSet{
		{{Word: "the", Source: models.SourceReal, Probability: 0.9}},
		{{Word: "sky", Source: models.SourceReal, Probability: 0.8}},
		{{Word: "is", Source: models.SourceReal, Probability: 0.6}},
	}

	aiClient.On("GetNextWordChoices", mock.Anything, mock.Anything, mock.Anything, 12).
		Return([]ai.WordCandidate{{Word: "sea", Probability: 0.4}}, nil).Times(3)

	result, err := svc.UndoLastWord(context.Background(), session.SessionID)
	require.NoError(t, err)

	assert.Equal(t, []string{"the"}, result.Path)
	assert.Contains(t, result.NextChoices, "sea")

	assert.Equal(t, 1, session.CurrentTurn)
	assert.Equal(t, 1, session.TotalSteps)
	assert.InDelta(t, 1.0, session.BestSteps, 1e-9)
	assert.Equal(t, []float64{1.0}, session.StepCredits)
	// История урезана до длины пути и дополнена свежим набором.
	require.Len(t, session.ChoiceHistory, 2)
	assert.Equal(t, "sea", session.ChoiceHistory[1][0].Word)
}

func TestUndoLastWord_EmptyPathRejected(t *testing.T) {
	svc, _, sessionStore := newTestService(t, testConfig())
	session := seedSession(sessionStore, nil)

	_, err := svc.UndoLastWord(context.Background(), session.SessionID)
	assert.ErrorIs(t, err, models.ErrEmptyPath)
	assert.Empty(t, session.Path)
}

func TestUndoLastWord_CompletedSessionRejected(t *testing.T) {
	svc, _, sessionStore := newTestService(t, testConfig())
	session := seedSession(sessionStore, nil)
	session.Path = []string{"the"}
	session.IsComplete = true

	_, err := svc.UndoLastWord(context.Background(), session.SessionID)
	assert.ErrorIs(t, err, models.ErrGameComplete)
}

func TestGetFinalScore_Success(t *testing.T) {
	svc, aiClient, sessionStore := newTestService(t, testConfig())
	session := seedSession(sessionStore, nil)
	session.Path = []string{"the", "sky", "is", "blue"}
	session.IsComplete = true
	session.BestSteps = 3.4
	session.TotalSteps = 4

	aiClient.On("PunctuatePath", mock.Anything, session.Path).
		Return("The sky is blue.", nil)
	aiClient.On("ScorePath", mock.Anything, "real question?", session.Path, 12).
		Return(75, "Адекватный ответ по теме.", nil)

	score, err := svc.GetFinalScore(context.Background(), session.SessionID)
	require.NoError(t, err)

	assert.Equal(t, 75, score.QualityScore)
	// 75 * 1.2 = 90
	assert.Equal(t, 90, score.TotalScore)
	assert.Equal(t, "The sky is blue.", score.PunctuatedAnswer)
	assert.Equal(t, "Адекватный ответ по теме.", score.Analysis)
	assert.Equal(t, []string{"the", "sky", "is", "blue"}, score.Path)
	// Подставные вопросы раскрываются только здесь и дословно.
	assert.Equal(t, "real question?", score.RealQuestion)
	assert.Equal(t, "fake question A?", score.FakeQuestionA)
	assert.Equal(t, "fake question B?", score.FakeQuestionB)
	assert.Equal(t, 3.4, score.BestSteps)
	assert.Equal(t, 4, score.TotalSteps)
}

func TestGetFinalScore_TotalScoreClampedAt100(t *testing.T) {
	svc, aiClient, sessionStore := newTestService(t, testConfig())
	session := seedSession(sessionStore, nil)
	session.Path = []string{"word"}
	session.IsComplete = true

	aiClient.On("PunctuatePath", mock.Anything, mock.Anything).Return("Word.", nil)
	aiClient.On("ScorePath", mock.Anything, mock.Anything, mock.Anything, 12).
		Return(95, "ok", nil)

	score, err := svc.GetFinalScore(context.Background(), session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 95, score.QualityScore)
	assert.Equal(t, 100, score.TotalScore)
}

func TestGetFinalScore_PunctuationFallsBackToPlainJoin(t *testing.T) {
	svc, aiClient, sessionStore := newTestService(t, testConfig())
	session := seedSession(sessionStore, nil)
	session.Path = []string{"the", "sky"}
	session.IsComplete = true

	aiClient.On("PunctuatePath", mock.Anything, mock.Anything).
		Return("", models.ErrAIUnavailable)
	aiClient.On("ScorePath", mock.Anything, mock.Anything, mock.Anything, 12).
		Return(50, "ok", nil)

	score, err := svc.GetFinalScore(context.Background(), session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "the sky", score.PunctuatedAnswer)
}

func TestGetFinalScore_MalformedScoreFailsHard(t *testing.T) {
	svc, aiClient, sessionStore := newTestService(t, testConfig())
	session := seedSession(sessionStore, nil)
	session.Path = []string{"word"}
	session.IsComplete = true

	aiClient.On("PunctuatePath", mock.Anything, mock.Anything).Return("Word.", nil)
	aiClient.On("ScorePath", mock.Anything, mock.Anything, mock.Anything, 12).
		Return(0, "", models.ErrMalformedScoreResponse)

	_, err := svc.GetFinalScore(context.Background(), session.SessionID)
	assert.ErrorIs(t, err, models.ErrMalformedScoreResponse)
}

func TestGetFinalScore_IncompleteSessionRejected(t *testing.T) {
	svc, _, sessionStore := newTestService(t, testConfig())
	session := seedSession(sessionStore, nil)
	session.Path = []string{"word"}

	_, err := svc.GetFinalScore(context.Background(), session.SessionID)
	assert.ErrorIs(t, err, models.ErrGameNotComplete)
}

func TestGenerateReaction(t *testing.T) {
	svc, aiClient, sessionStore := newTestService(t, testConfig())
	session := seedSession(sessionStore, nil)
	session.Path = []string{"the", "sky"}

	aiClient.On("GenerateReaction", mock.Anything, "the sky", false).
		Return(models.ReactionAppreciation, nil)

	reaction, err := svc.GenerateReaction(context.Background(), session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionAppreciation, reaction)
}

func TestGenerateReaction_UnknownSession(t *testing.T) {
	svc, _, _ := newTestService(t, testConfig())

	_, err := svc.GenerateReaction(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestMergeChoices_KeepsMaxProbabilityPerWord(t *testing.T) {
	set := models.TurnChoiceSet{
		{Word: "sky", Source: models.SourceReal, Probability: 0.8},
		{Word: "sea", Source: models.SourceReal, Probability: 0.5},
		{Word: "sky", Source: models.SourceFakeA, Probability: 0},
		{Word: "sun", Source: models.SourceFakeB, Probability: 0},
	}

	merged := mergeChoices(set)
	assert.ElementsMatch(t, []string{"sky", "sea", "sun"}, merged)
}

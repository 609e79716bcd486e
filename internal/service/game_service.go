package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"mimic-server/internal/ai"
	"mimic-server/internal/config"
	"mimic-server/internal/models"
	"mimic-server/internal/prompts"
	"mimic-server/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// totalScoreMultiplier калибрует итоговый балл: сырая оценка когерентности
// умножается на коэффициент и обрезается до 100. Осознанная настройка кривой
// сложности, а не ошибка округления.
const totalScoreMultiplier = 1.2

// StartResult — результат старта новой игры. Подставные вопросы клиенту
// не раскрываются до финального счета.
type StartResult struct {
	SessionID string   `json:"session_id"`
	Question  string   `json:"question"`
	Choices   []string `json:"choices"`
}

// TurnResult — результат выбора или отмены слова.
type TurnResult struct {
	Path        []string `json:"path"`
	NextChoices []string `json:"next_choices,omitempty"`
	IsComplete  bool     `json:"is_complete"`
}

// GameService определяет интерфейс игрового цикла.
type GameService interface {
	StartGame(ctx context.Context) (*StartResult, error)
	SelectWord(ctx context.Context, sessionID, word string) (*TurnResult, error)
	UndoLastWord(ctx context.Context, sessionID string) (*TurnResult, error)
	GetFinalScore(ctx context.Context, sessionID string) (*models.GameScore, error)
	GenerateReaction(ctx context.Context, sessionID string) (models.Reaction, error)
}

type gameServiceImpl struct {
	aiClient ai.AIClient
	store    store.SessionStore
	cfg      *config.Config
	logger   *zap.Logger
}

func NewGameService(aiClient ai.AIClient, sessionStore store.SessionStore, cfg *config.Config, logger *zap.Logger) GameService {
	return &gameServiceImpl{
		aiClient: aiClient,
		store:    sessionStore,
		cfg:      cfg,
		logger:   logger,
	}
}

// StartGame генерирует три вопроса (настоящий и два подставных), создает
// сессию и возвращает первый набор слов. Генерация вопросов — все или ничего:
// любая ошибка отменяет старт целиком.
func (s *gameServiceImpl) StartGame(ctx context.Context) (*StartResult, error) {
	promptReal, promptFakeA, promptFakeB := prompts.GenerateDistinctPrompts()

	var (
		wg        sync.WaitGroup
		questions [3]string
		errs      [3]error
	)
	for i, topic := range []string{promptReal, promptFakeA, promptFakeB} {
		wg.Add(1)
		go func(i int, topic string) {
			defer wg.Done()
			questions[i], errs[i] = s.aiClient.GenerateQuestion(ctx, topic, s.cfg.MaxPathLength)
		}(i, topic)
	}
	wg.Wait()

	if err := firstError(errs[:]); err != nil {
		s.logger.Error("Не удалось сгенерировать вопросы", zap.Error(err))
		return nil, fmt.Errorf("генерация вопросов: %w", err)
	}

	session := &models.GameSession{
		SessionID:     uuid.New().String(),
		RealQuestion:  questions[0],
		FakeQuestionA: questions[1],
		FakeQuestionB: questions[2],
		Path:          []string{},
		CreatedAt:     time.Now(),
	}

	choiceSet, merged, err := s.generateChoices(ctx, session)
	if err != nil {
		return nil, err
	}
	session.ChoiceHistory = append(session.ChoiceHistory, choiceSet)

	s.store.Create(session)

	s.logger.Info("Игра начата",
		zap.String("session_id", session.SessionID),
		zap.String("question", session.RealQuestion),
		zap.Int("choices", len(merged)))

	return &StartResult{
		SessionID: session.SessionID,
		Question:  session.RealQuestion,
		Choices:   merged,
	}, nil
}

// SelectWord фиксирует выбор игрока и генерирует следующий набор слов.
// Сентинел досрочной отправки завершает игру, не трогая путь. Если генерация
// следующего набора упала на лимите запросов, уже зафиксированный выбор
// сохраняется — игрок его не теряет.
func (s *gameServiceImpl) SelectWord(ctx context.Context, sessionID, word string) (*TurnResult, error) {
	session, ok := s.store.Get(sessionID)
	if !ok {
		return nil, models.ErrSessionNotFound
	}

	session.Mu.Lock()
	defer session.Mu.Unlock()

	if session.IsComplete {
		return nil, models.ErrGameComplete
	}

	if word == models.SubmitSentinel {
		session.IsComplete = true
		s.logger.Info("Игрок отправил ответ досрочно",
			zap.String("session_id", sessionID),
			zap.String("path", strings.Join(session.Path, " ")))
		return &TurnResult{Path: copyPath(session.Path), IsComplete: true}, nil
	}

	session.Path = append(session.Path, word)
	session.CurrentTurn++
	session.TotalSteps++

	credit := s.stepCredit(session, word)
	session.BestSteps += credit
	session.StepCredits = append(session.StepCredits, credit)

	s.logger.Info("Слово выбрано",
		zap.String("session_id", sessionID),
		zap.String("word", word),
		zap.Float64("credit", credit),
		zap.Float64("best_steps", session.BestSteps),
		zap.Int("total_steps", session.TotalSteps))

	if len(session.Path) >= s.cfg.MaxPathLength {
		session.IsComplete = true
		s.logger.Info("Игра завершена: достигнута максимальная длина",
			zap.String("session_id", sessionID))
		return &TurnResult{Path: copyPath(session.Path), IsComplete: true}, nil
	}

	choiceSet, merged, err := s.generateChoices(ctx, session)
	if err != nil {
		// Выбор уже зафиксирован; ошибку отдаем как повторяемую.
		return nil, err
	}
	session.ChoiceHistory = append(session.ChoiceHistory, choiceSet)

	return &TurnResult{
		Path:        copyPath(session.Path),
		NextChoices: merged,
	}, nil
}

// stepCredit оценивает качество шага по последнему набору слов: полный балл
// за самое вероятное слово, иначе 1-(max-picked) с отсечкой снизу. Ход без
// данных настоящего советника (max == 0) не оценивается вовсе.
func (s *gameServiceImpl) stepCredit(session *models.GameSession, word string) float64 {
	if len(session.ChoiceHistory) == 0 {
		return 0
	}
	current := session.ChoiceHistory[len(session.ChoiceHistory)-1]
	choice, ok := current.Find(word)
	if !ok {
		return 0
	}
	maxProb := current.MaxProbability()
	if maxProb <= 0 {
		return 0
	}
	if choice.Probability == maxProb {
		return 1
	}
	return math.Max(0, 1-(maxProb-choice.Probability))
}

// UndoLastWord откатывает последний ход: слово, счетчики, кредит качества и
// набор слов этого хода, затем генерирует свежие варианты для укороченного пути.
func (s *gameServiceImpl) UndoLastWord(ctx context.Context, sessionID string) (*TurnResult, error) {
	session, ok := s.store.Get(sessionID)
	if !ok {
		return nil, models.ErrSessionNotFound
	}

	session.Mu.Lock()
	defer session.Mu.Unlock()

	if session.IsComplete {
		return nil, models.ErrGameComplete
	}
	if len(session.Path) == 0 {
		return nil, models.ErrEmptyPath
	}

	undone := session.Path[len(session.Path)-1]
	session.Path = session.Path[:len(session.Path)-1]
	session.CurrentTurn--
	session.TotalSteps--

	if n := len(session.StepCredits); n > 0 {
		session.BestSteps -= session.StepCredits[n-1]
		session.StepCredits = session.StepCredits[:n-1]
	}
	if session.BestSteps < 0 {
		session.BestSteps = 0
	}

	// После нормального хода в истории на один набор больше, чем слов в пути;
	// после хода, упавшего на лимите, — ровно столько же. Урезаем до длины
	// пути и генерируем набор для текущей позиции заново.
	if len(session.ChoiceHistory) > len(session.Path) {
		session.ChoiceHistory = session.ChoiceHistory[:len(session.Path)]
	}

	s.logger.Info("Ход отменен",
		zap.String("session_id", sessionID),
		zap.String("word", undone),
		zap.Int("path_length", len(session.Path)))

	choiceSet, merged, err := s.generateChoices(ctx, session)
	if err != nil {
		return nil, err
	}
	session.ChoiceHistory = append(session.ChoiceHistory, choiceSet)

	return &TurnResult{
		Path:        copyPath(session.Path),
		NextChoices: merged,
	}, nil
}

// GetFinalScore выставляет финальный балл завершенной игры. Пунктуация —
// чисто косметическая, при ошибке отдаем путь как есть; оценка когерентности
// обязательна и при некорректном ответе модели валит запрос целиком.
func (s *gameServiceImpl) GetFinalScore(ctx context.Context, sessionID string) (*models.GameScore, error) {
	session, ok := s.store.Get(sessionID)
	if !ok {
		return nil, models.ErrSessionNotFound
	}

	session.Mu.Lock()
	defer session.Mu.Unlock()

	if !session.IsComplete {
		return nil, models.ErrGameNotComplete
	}

	var (
		wg         sync.WaitGroup
		punctuated string
		punctErr   error
		score      int
		analysis   string
		scoreErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		punctuated, punctErr = s.aiClient.PunctuatePath(ctx, session.Path)
	}()
	go func() {
		defer wg.Done()
		score, analysis, scoreErr = s.aiClient.ScorePath(ctx, session.RealQuestion, session.Path, s.cfg.MaxPathLength)
	}()
	wg.Wait()

	if scoreErr != nil {
		s.logger.Error("Не удалось оценить ответ",
			zap.String("session_id", sessionID), zap.Error(scoreErr))
		return nil, scoreErr
	}
	if punctErr != nil {
		s.logger.Warn("Пунктуация не удалась, отдаем путь без нее",
			zap.String("session_id", sessionID), zap.Error(punctErr))
		punctuated = strings.Join(session.Path, " ")
	}

	total := int(math.Round(float64(score) * totalScoreMultiplier))
	if total > 100 {
		total = 100
	}

	s.logger.Info("Финальный счет",
		zap.String("session_id", sessionID),
		zap.Int("quality_score", score),
		zap.Int("total_score", total))

	return &models.GameScore{
		QualityScore:     score,
		TotalScore:       total,
		Analysis:         analysis,
		Path:             copyPath(session.Path),
		PunctuatedAnswer: punctuated,
		RealQuestion:     session.RealQuestion,
		FakeQuestionA:    session.FakeQuestionA,
		FakeQuestionB:    session.FakeQuestionB,
		BestSteps:        session.BestSteps,
		TotalSteps:       session.TotalSteps,
	}, nil
}

// GenerateReaction возвращает живую реакцию на текущий ответ игрока.
func (s *gameServiceImpl) GenerateReaction(ctx context.Context, sessionID string) (models.Reaction, error) {
	session, ok := s.store.Get(sessionID)
	if !ok {
		return "", models.ErrSessionNotFound
	}

	session.Mu.Lock()
	answer := strings.Join(session.Path, " ")
	isComplete := session.IsComplete
	session.Mu.Unlock()

	return s.aiClient.GenerateReaction(ctx, answer, isComplete)
}

// generateChoices опрашивает всех трех советников параллельно и собирает
// единый набор хода. Вероятности подставных советников обнуляются: их слова
// нужны только как помехи и не должны приносить кредит качества. Частичные
// результаты наружу не отдаются — мердж только после всех трех ответов.
func (s *gameServiceImpl) generateChoices(ctx context.Context, session *models.GameSession) (models.TurnChoiceSet, []string, error) {
	questions := []struct {
		question string
		source   models.WordSource
	}{
		{session.RealQuestion, models.SourceReal},
		{session.FakeQuestionA, models.SourceFakeA},
		{session.FakeQuestionB, models.SourceFakeB},
	}

	var (
		wg      sync.WaitGroup
		results [3][]ai.WordCandidate
		errs    [3]error
	)
	for i, q := range questions {
		wg.Add(1)
		go func(i int, question string) {
			defer wg.Done()
			results[i], errs[i] = s.aiClient.GetNextWordChoices(ctx, question, session.Path, s.cfg.MaxPathLength)
		}(i, q.question)
	}
	wg.Wait()

	if err := firstError(errs[:]); err != nil {
		s.logger.Warn("Генерация вариантов не удалась",
			zap.String("session_id", session.SessionID), zap.Error(err))
		return nil, nil, fmt.Errorf("генерация вариантов: %w", err)
	}

	choiceSet := make(models.TurnChoiceSet, 0, len(results[0])+len(results[1])+len(results[2]))
	for i, q := range questions {
		for _, candidate := range results[i] {
			probability := candidate.Probability
			if q.source != models.SourceReal {
				probability = 0
			}
			choiceSet = append(choiceSet, models.WordChoice{
				Word:        candidate.Word,
				Source:      q.source,
				Probability: probability,
			})
		}
	}

	return choiceSet, mergeChoices(choiceSet), nil
}

// mergeChoices дедуплицирует слова набора, оставляя максимальную вероятность,
// и перемешивает результат, чтобы позиция слова не выдавала источник.
func mergeChoices(set models.TurnChoiceSet) []string {
	best := make(map[string]float64, len(set))
	order := make([]string, 0, len(set))
	for _, choice := range set {
		if prob, ok := best[choice.Word]; !ok {
			best[choice.Word] = choice.Probability
			order = append(order, choice.Word)
		} else if choice.Probability > prob {
			best[choice.Word] = choice.Probability
		}
	}
	rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	return order
}

// firstError возвращает первую ошибку, отдавая приоритет лимиту запросов:
// клиенту важно отличать повторяемый отказ от остальных.
func firstError(errs []error) error {
	var first error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, models.ErrRateLimited) {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return first
}

func copyPath(path []string) []string {
	out := make([]string, len(path))
	copy(out, path)
	return out
}

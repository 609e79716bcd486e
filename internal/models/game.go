package models

import (
	"sync"
	"time"
)

// WordSource указывает, какой из трёх "советников" предложил слово.
type WordSource string

const (
	SourceReal  WordSource = "real"
	SourceFakeA WordSource = "fakeA"
	SourceFakeB WordSource = "fakeB"
)

// SubmitSentinel - специальное значение слова, означающее "завершить ответ сейчас".
const SubmitSentinel = "[SUBMIT]"

// WordChoice - один кандидат слова, предложенный в рамках хода.
// Probability - вероятность из модели; для слов от фейковых советников всегда 0,
// они существуют только как дистракторы и не должны приносить очки.
type WordChoice struct {
	Word        string     `json:"word"`
	Source      WordSource `json:"source"`
	Probability float64    `json:"probability"`
}

// TurnChoiceSet - все кандидаты, сгенерированные за один ход (до дедупликации).
type TurnChoiceSet []WordChoice

// MaxProbability возвращает максимальную вероятность среди кандидатов хода.
func (t TurnChoiceSet) MaxProbability() float64 {
	max := 0.0
	for _, c := range t {
		if c.Probability > max {
			max = c.Probability
		}
	}
	return max
}

// Find возвращает кандидата с указанным словом (первое совпадение).
func (t TurnChoiceSet) Find(word string) (WordChoice, bool) {
	for _, c := range t {
		if c.Word == word {
			return c, true
		}
	}
	return WordChoice{}, false
}

// GameSession - состояние одной игровой сессии.
// Запись принадлежит Session Store, мутируется только игровым движком.
// Mu обеспечивает single-flight: не более одной мутации сессии одновременно.
type GameSession struct {
	Mu sync.Mutex `json:"-"`

	SessionID     string    `json:"session_id"`
	RealQuestion  string    `json:"real_question"`
	FakeQuestionA string    `json:"fake_question_a"`
	FakeQuestionB string    `json:"fake_question_b"`

	// Path - последовательность слов, выбранных игроком.
	Path        []string `json:"path"`
	CurrentTurn int      `json:"current_turn"`
	IsComplete  bool     `json:"is_complete"`
	CreatedAt   time.Time `json:"created_at"`

	// ChoiceHistory - по одному TurnChoiceSet на каждый сгенерированный ход.
	ChoiceHistory []TurnChoiceSet `json:"choice_history"`

	// StepCredits хранит начисленное качество каждого шага, чтобы Undo мог
	// откатить BestSteps ровно на величину последнего шага.
	StepCredits []float64 `json:"step_credits"`
	BestSteps   float64   `json:"best_steps"`
	TotalSteps  int       `json:"total_steps"`
}

// GameScore - итоговая оценка завершённой сессии.
type GameScore struct {
	QualityScore     int      `json:"quality_score"`
	TotalScore       int      `json:"total_score"`
	Analysis         string   `json:"analysis"`
	Path             []string `json:"path"`
	PunctuatedAnswer string   `json:"punctuated_answer"`
	RealQuestion     string   `json:"real_question"`
	FakeQuestionA    string   `json:"fake_question_a"`
	FakeQuestionB    string   `json:"fake_question_b"`
	BestSteps        float64  `json:"best_steps"`
	TotalSteps       int      `json:"total_steps"`
}

// Reaction - эмоциональная реакция "пользователя" на текущий ответ.
type Reaction string

const (
	ReactionAppreciation Reaction = "appreciation"
	ReactionDislike      Reaction = "dislike"
	ReactionConfused     Reaction = "confused"
)

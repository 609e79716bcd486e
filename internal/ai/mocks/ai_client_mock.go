package mocks

import (
	"context"

	"mimic-server/internal/ai"
	"mimic-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockAIClient is a mock type for the AIClient type
type MockAIClient struct {
	mock.Mock
}

func (_m *MockAIClient) GenerateQuestion(ctx context.Context, topicPrompt string, maxWords int) (string, error) {
	ret := _m.Called(ctx, topicPrompt, maxWords)
	return ret.String(0), ret.Error(1)
}

func (_m *MockAIClient) GetNextWordChoices(ctx context.Context, question string, path []string, maxWords int) ([]ai.WordCandidate, error) {
	ret := _m.Called(ctx, question, path, maxWords)

	var r0 []ai.WordCandidate
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]ai.WordCandidate)
	}
	return r0, ret.Error(1)
}

func (_m *MockAIClient) PunctuatePath(ctx context.Context, path []string) (string, error) {
	ret := _m.Called(ctx, path)
	return ret.String(0), ret.Error(1)
}

func (_m *MockAIClient) ScorePath(ctx context.Context, question string, path []string, maxWords int) (int, string, error) {
	ret := _m.Called(ctx, question, path, maxWords)
	return ret.Int(0), ret.String(1), ret.Error(2)
}

func (_m *MockAIClient) GenerateReaction(ctx context.Context, answerSoFar string, isComplete bool) (models.Reaction, error) {
	ret := _m.Called(ctx, answerSoFar, isComplete)

	var r0 models.Reaction
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(models.Reaction)
	}
	return r0, ret.Error(1)
}

// NewMockAIClient creates a new instance of MockAIClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations. The first argument is typically a *testing.T value.
func NewMockAIClient(t interface {
	mock.TestingT
	Helper()
}) *MockAIClient {
	m := &MockAIClient{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ ai.AIClient = (*MockAIClient)(nil)

package mocks

import (
	"context"

	"mimic-server/internal/models"
	"mimic-server/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockGameService is a mock type for the GameService type
type MockGameService struct {
	mock.Mock
}

func (_m *MockGameService) StartGame(ctx context.Context) (*service.StartResult, error) {
	ret := _m.Called(ctx)

	var r0 *service.StartResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*service.StartResult)
	}
	return r0, ret.Error(1)
}

func (_m *MockGameService) SelectWord(ctx context.Context, sessionID string, word string) (*service.TurnResult, error) {
	ret := _m.Called(ctx, sessionID, word)

	var r0 *service.TurnResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*service.TurnResult)
	}
	return r0, ret.Error(1)
}

func (_m *MockGameService) UndoLastWord(ctx context.Context, sessionID string) (*service.TurnResult, error) {
	ret := _m.Called(ctx, sessionID)

	var r0 *service.TurnResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*service.TurnResult)
	}
	return r0, ret.Error(1)
}

func (_m *MockGameService) GetFinalScore(ctx context.Context, sessionID string) (*models.GameScore, error) {
	ret := _m.Called(ctx, sessionID)

	var r0 *models.GameScore
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.GameScore)
	}
	return r0, ret.Error(1)
}

func (_m *MockGameService) GenerateReaction(ctx context.Context, sessionID string) (models.Reaction, error) {
	ret := _m.Called(ctx, sessionID)

	var r0 models.Reaction
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(models.Reaction)
	}
	return r0, ret.Error(1)
}

// NewMockGameService creates a new instance of MockGameService. It also
// registers a testing interface on the mock. The first argument is typically
// a *testing.T value.
func NewMockGameService(t interface {
	mock.TestingT
	Helper()
}) *MockGameService {
	m := &MockGameService{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.GameService = (*MockGameService)(nil)

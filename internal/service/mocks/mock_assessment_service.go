package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hkao1210/A-PLUS-I/internal/model"
)

type MockAssessmentService struct {
	mock.Mock
}

func (m *MockAssessmentService) Assess(ctx context.Context, req model.GradingRequest) (*model.Assessment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Assessment), args.Error(1)
}

func (m *MockAssessmentService) History(ctx context.Context, id model.DocumentID, limit int) ([]model.Assessment, error) {
	args := m.Called(ctx, id, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Assessment), args.Error(1)
}

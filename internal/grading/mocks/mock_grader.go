package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hkao1210/A-PLUS-I/internal/grading"
	"github.com/hkao1210/A-PLUS-I/internal/model"
)

type MockGrader struct {
	mock.Mock
}

func (m *MockGrader) Grade(ctx context.Context, s grading.Submission) (*model.AssessmentResult, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AssessmentResult), args.Error(1)
}

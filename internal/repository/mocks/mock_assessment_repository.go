package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hkao1210/A-PLUS-I/internal/model"
)

type MockAssessmentRepository struct {
	mock.Mock
}

func (m *MockAssessmentRepository) Create(ctx context.Context, a *model.Assessment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAssessmentRepository) ListByDocument(ctx context.Context, id model.DocumentID, limit int) ([]model.Assessment, error) {
	args := m.Called(ctx, id, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Assessment), args.Error(1)
}

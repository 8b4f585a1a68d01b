package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hkao1210/A-PLUS-I/internal/model"
)

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, f model.DocumentFile) (model.DocumentID, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(model.DocumentID), args.Error(1)
}

type MockGrader struct {
	mock.Mock
}

func (m *MockGrader) Grade(ctx context.Context, req model.GradingRequest) ([]byte, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

package repository

import (
	"context"

	"github.com/hkao1210/A-PLUS-I/internal/model"
)

// AssessmentRepository persists grading outcomes.
type AssessmentRepository interface {
	Create(ctx context.Context, a *model.Assessment) error
	// ListByDocument returns the newest assessments of a document first.
	ListByDocument(ctx context.Context, id model.DocumentID, limit int) ([]model.Assessment, error)
}

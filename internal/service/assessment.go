package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/hkao1210/A-PLUS-I/internal/grading"
	"github.com/hkao1210/A-PLUS-I/internal/model"
	"github.com/hkao1210/A-PLUS-I/internal/repository"
)

// ErrUnreadable is returned when no answer text can be taken from a document.
var ErrUnreadable = errors.New("document text could not be read")

const defaultHistoryLimit = 20

// Grader scores one submission.
type Grader interface {
	Grade(ctx context.Context, s grading.Submission) (*model.AssessmentResult, error)
}

// AssessmentService grades stored documents and keeps the results.
type AssessmentService interface {
	// Assess grades the referenced document against the reference answer and
	// persists the outcome.
	Assess(ctx context.Context, req model.GradingRequest) (*model.Assessment, error)

	// History lists a document's assessments, newest first.
	History(ctx context.Context, id model.DocumentID, limit int) ([]model.Assessment, error)
}

type assessmentService struct {
	docs     DocumentService
	repo     repository.AssessmentRepository
	grader   Grader
	maxBytes int64
}

// NewAssessmentService constructs an AssessmentService. maxBytes bounds how much of a
// document is read for grading; zero reads it whole.
func NewAssessmentService(docs DocumentService, repo repository.AssessmentRepository, grader Grader, maxBytes int64) AssessmentService {
	return &assessmentService{docs: docs, repo: repo, grader: grader, maxBytes: maxBytes}
}

func (s *assessmentService) Assess(ctx context.Context, req model.GradingRequest) (*model.Assessment, error) {
	rc, doc, err := s.docs.Open(ctx, req.DocumentID())
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if s.maxBytes > 0 {
		r = io.LimitReader(rc, s.maxBytes)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	text, err := grading.ExtractText(doc.ContentType, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	res, err := s.grader.Grade(ctx, grading.Submission{
		Question:        req.Question(),
		ReferenceAnswer: req.TeacherAnswer(),
		StudentAnswer:   text,
	})
	if err != nil {
		return nil, err
	}

	a := &model.Assessment{
		ID:               uuid.New().String(),
		DocumentID:       doc.ID,
		Question:         req.Question(),
		TeacherAnswer:    req.TeacherAnswer(),
		AssessmentResult: *res,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("save assessment: %w", err)
	}
	return a, nil
}

func (s *assessmentService) History(ctx context.Context, id model.DocumentID, limit int) ([]model.Assessment, error) {
	if _, err := s.docs.Get(ctx, id); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxPageSize {
		limit = defaultHistoryLimit
	}
	return s.repo.ListByDocument(ctx, id, limit)
}

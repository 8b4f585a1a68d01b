package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hkao1210/A-PLUS-I/internal/model"
	"github.com/hkao1210/A-PLUS-I/internal/repository"
)

// AssessmentPostgres is a PostgreSQL implementation of repository.AssessmentRepository.
type AssessmentPostgres struct {
	db *sql.DB
}

func NewAssessmentPostgres(db *sql.DB) *AssessmentPostgres {
	return &AssessmentPostgres{db: db}
}

var _ repository.AssessmentRepository = (*AssessmentPostgres)(nil)

func (r *AssessmentPostgres) Create(ctx context.Context, a *model.Assessment) error {
	const q = `
		INSERT INTO assessments
			(id, document_id, question, teacher_answer, score, accuracy, clarity, concepts, feedback, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, q,
		a.ID,
		a.DocumentID,
		a.Question,
		a.TeacherAnswer,
		a.Score,
		a.Breakdown.Accuracy,
		a.Breakdown.Clarity,
		a.Breakdown.Concepts,
		a.Feedback,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

func (r *AssessmentPostgres) ListByDocument(ctx context.Context, id model.DocumentID, limit int) ([]model.Assessment, error) {
	const q = `
		SELECT id, document_id, question, teacher_answer, score, accuracy, clarity, concepts, feedback, created_at
		FROM assessments
		WHERE document_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, q, id, limit)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	out := make([]model.Assessment, 0)
	for rows.Next() {
		var a model.Assessment
		if err := rows.Scan(
			&a.ID,
			&a.DocumentID,
			&a.Question,
			&a.TeacherAnswer,
			&a.Score,
			&a.Breakdown.Accuracy,
			&a.Breakdown.Clarity,
			&a.Breakdown.Concepts,
			&a.Feedback,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

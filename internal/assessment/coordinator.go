// Package assessment coordinates a grading request: it makes sure the student's
// document has been uploaded and identified, then forwards the request to the grading
// collaborator and normalizes the answer.
package assessment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hkao1210/A-PLUS-I/internal/apperr"
	"github.com/hkao1210/A-PLUS-I/internal/model"
)

// Uploader stores a document and resolves its identifier.
type Uploader interface {
	Upload(ctx context.Context, f model.DocumentFile) (model.DocumentID, error)
}

// Grader forwards a grading request and returns the collaborator's raw response body.
type Grader interface {
	Grade(ctx context.Context, req model.GradingRequest) ([]byte, error)
}

// Request is one assessment submission. The document is either already stored
// (DocumentID set) or still local (File set); an already stored document is not
// uploaded again.
type Request struct {
	DocumentID    model.DocumentID
	File          *model.DocumentFile
	Question      string
	TeacherAnswer string
}

// Validate reports every missing required field at once.
func (r Request) Validate() error {
	var missing []string
	if strings.TrimSpace(string(r.DocumentID)) == "" && (r.File == nil || len(r.File.Content) == 0) {
		missing = append(missing, "document")
	}
	if strings.TrimSpace(r.Question) == "" {
		missing = append(missing, "question")
	}
	if strings.TrimSpace(r.TeacherAnswer) == "" {
		missing = append(missing, "reference answer")
	}
	if len(missing) > 0 {
		return apperr.Missing(missing...)
	}
	if r.DocumentID == "" {
		return r.File.Validate()
	}
	return nil
}

// Coordinator runs the two assessment phases in strict order.
type Coordinator struct {
	uploader Uploader
	grader   Grader
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewCoordinator creates a coordinator.
func NewCoordinator(uploader Uploader, grader Grader, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		uploader: uploader,
		grader:   grader,
		logger:   logger.With(slog.String("component", "assessment_coordinator")),
		tracer:   otel.Tracer("github.com/hkao1210/A-PLUS-I/internal/assessment"),
	}
}

// Submit performs one logical assessment: upload if needed, then grade.
// It yields exactly one fully normalized result or one typed error.
func (c *Coordinator) Submit(ctx context.Context, req Request) (*model.AssessmentResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "assessment.Submit")
	defer span.End()

	id := req.DocumentID
	if id == "" {
		var err error
		id, err = c.Upload(ctx, *req.File)
		if err != nil {
			recordError(span, err)
			return nil, err
		}
	}

	gr, err := model.NewGradingRequest(id, req.Question, req.TeacherAnswer)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	res, err := c.Assess(ctx, gr)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return res, nil
}

// Upload is the first phase: store the document and resolve its identifier.
func (c *Coordinator) Upload(ctx context.Context, f model.DocumentFile) (model.DocumentID, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}

	ctx, span := c.tracer.Start(ctx, "assessment.Upload",
		trace.WithAttributes(attribute.String("document.name", f.Name)))
	defer span.End()

	id, err := c.uploader.Upload(ctx, f)
	if err != nil {
		recordError(span, err)
		return "", err
	}
	if strings.TrimSpace(string(id)) == "" {
		err := &apperr.TransferError{Op: "upload", Detail: "store returned an empty document id"}
		recordError(span, err)
		return "", err
	}

	span.SetAttributes(attribute.String("document.id", id.String()))
	c.logger.Info("document stored", slog.String("document_id", id.String()))
	return id, nil
}

// Assess is the second phase. Its input can only be built from a resolved DocumentID,
// so the grading call can never precede a successful upload.
func (c *Coordinator) Assess(ctx context.Context, gr model.GradingRequest) (*model.AssessmentResult, error) {
	ctx, span := c.tracer.Start(ctx, "assessment.Assess",
		trace.WithAttributes(attribute.String("document.id", gr.DocumentID().String())))
	defer span.End()

	body, err := c.grader.Grade(ctx, gr)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	res, err := model.NormalizeResult(body)
	if err != nil {
		c.logger.Warn("grading result rejected",
			slog.String("document_id", gr.DocumentID().String()),
			slog.String("error", err.Error()),
		)
		recordError(span, err)
		return nil, fmt.Errorf("normalize grading result: %w", err)
	}

	span.SetAttributes(attribute.Float64("assessment.score", res.Score))
	return res, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

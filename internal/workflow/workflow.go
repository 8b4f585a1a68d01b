// Package workflow is the submission state machine a caller drives to get an answer
// assessed.
//
// All attempt state lives in a Session value. Every transition takes a Session and
// returns the next one; nothing is kept in package or Workflow state, so independent
// submissions never share status.
//
//	Editing -> Uploading -> Processing -> Completed
//	              |             |
//	              +-> Failed <--+
//
// Completed and Failed both allow ReturnToEditing.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hkao1210/A-PLUS-I/internal/apperr"
	"github.com/hkao1210/A-PLUS-I/internal/model"
)

// ErrInvalidTransition is returned when an operation is not allowed in the current state.
var ErrInvalidTransition = errors.New("invalid workflow transition")

// State is a submission stage.
type State int

const (
	Editing State = iota
	Uploading
	Processing
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Uploading:
		return "uploading"
	case Processing:
		return "processing"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StatusKind is the coarse upload/processing status derived from State.
type StatusKind string

const (
	StatusIdle      StatusKind = "idle"
	StatusInFlight  StatusKind = "in-flight"
	StatusSucceeded StatusKind = "succeeded"
	StatusFailed    StatusKind = "failed"
)

// Status is a tagged status value; Reason is set only for StatusFailed.
type Status struct {
	Kind   StatusKind
	Reason string
}

// Session is the explicitly owned state of one submission.
type Session struct {
	state         State
	question      string
	teacherAnswer string
	document      *model.DocumentFile
	documentID    model.DocumentID
	result        *model.AssessmentResult
	err           error
	message       string
}

// NewSession returns an empty session in Editing.
func NewSession() Session { return Session{state: Editing} }

// State is the current workflow state.
func (s Session) State() State { return s.state }

// Question is the exam question being graded.
func (s Session) Question() string { return s.question }

// TeacherAnswer is the reference answer supplied with the question.
func (s Session) TeacherAnswer() string { return s.teacherAnswer }

// Document is the selected local file, or nil.
func (s Session) Document() *model.DocumentFile { return s.document }

// DocumentID is the stored id of the selected file once it has been uploaded.
func (s Session) DocumentID() model.DocumentID { return s.documentID }

// Result is the normalized assessment after a completed submission.
func (s Session) Result() *model.AssessmentResult { return s.result }

// Err is the failure that moved the session to Failed, or the cause of a rejected submit.
func (s Session) Err() error { return s.err }

// Message is the user-facing text for Err.
func (s Session) Message() string { return s.message }

// InFlight reports whether an upload or grading call is outstanding.
func (s Session) InFlight() bool { return s.state == Uploading || s.state == Processing }

// Status derives the tagged upload/processing status.
func (s Session) Status() Status {
	switch s.state {
	case Uploading, Processing:
		return Status{Kind: StatusInFlight}
	case Completed:
		return Status{Kind: StatusSucceeded}
	case Failed:
		return Status{Kind: StatusFailed, Reason: s.message}
	default:
		return Status{Kind: StatusIdle}
	}
}

// CanSubmit reports whether Submit would leave Editing.
func (s Session) CanSubmit() bool {
	return s.state == Editing && validateInputs(s) == nil
}

// SetQuestion updates the question text.
func SetQuestion(s Session, q string) (Session, error) {
	if err := requireEditing(s, "edit question"); err != nil {
		return s, err
	}
	s.question = q
	return s, nil
}

// SetTeacherAnswer updates the reference answer text.
func SetTeacherAnswer(s Session, a string) (Session, error) {
	if err := requireEditing(s, "edit reference answer"); err != nil {
		return s, err
	}
	s.teacherAnswer = a
	return s, nil
}

// SelectDocument picks the student's document. Unsupported types are rejected in place:
// the previous selection is kept and the validation message is set.
func SelectDocument(s Session, f model.DocumentFile) (Session, error) {
	if err := requireEditing(s, "select document"); err != nil {
		return s, err
	}
	if _, err := f.MediaType(); err != nil {
		s.message = apperr.UserMessage(err)
		return s, err
	}
	doc := f
	s.document = &doc
	s.documentID = ""
	s.result = nil
	s.err = nil
	s.message = ""
	return s, nil
}

// ClearDocument removes the selected document.
func ClearDocument(s Session) (Session, error) {
	if err := requireEditing(s, "clear document"); err != nil {
		return s, err
	}
	s.document = nil
	s.documentID = ""
	s.result = nil
	return s, nil
}

// ReturnToEditing leaves a terminal state so the user can retry or start over.
// Inputs are kept; a document already stored is not uploaded again.
func ReturnToEditing(s Session) (Session, error) {
	if s.state != Completed && s.state != Failed {
		return s, fmt.Errorf("%w: return to editing from %s", ErrInvalidTransition, s.state)
	}
	s.state = Editing
	s.result = nil
	s.err = nil
	s.message = ""
	return s, nil
}

// Begin fires Editing -> Uploading when document, question and reference answer are
// all present. Otherwise the session stays in Editing with a validation message.
func Begin(s Session) (Session, error) {
	if err := requireEditing(s, "submit"); err != nil {
		return s, err
	}
	if err := validateInputs(s); err != nil {
		s.message = apperr.UserMessage(err)
		return s, err
	}
	s.state = Uploading
	s.message = ""
	s.err = nil
	return s, nil
}

func validateInputs(s Session) error {
	var missing []string
	if s.documentID == "" && (s.document == nil || len(s.document.Content) == 0) {
		missing = append(missing, "document")
	}
	if strings.TrimSpace(s.question) == "" {
		missing = append(missing, "question")
	}
	if strings.TrimSpace(s.teacherAnswer) == "" {
		missing = append(missing, "reference answer")
	}
	if len(missing) > 0 {
		return apperr.Missing(missing...)
	}
	return nil
}

func requireEditing(s Session, action string) error {
	if s.state != Editing {
		return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, action, s.state)
	}
	return nil
}

// Coordinator runs the two assessment phases.
type Coordinator interface {
	Upload(ctx context.Context, f model.DocumentFile) (model.DocumentID, error)
	Assess(ctx context.Context, gr model.GradingRequest) (*model.AssessmentResult, error)
}

// Transition records one state change.
type Transition struct {
	From, To State
}

// Workflow drives a Session through the in-flight stages.
type Workflow struct {
	coord   Coordinator
	logger  *slog.Logger
	observe func(Transition)
}

// New creates a workflow. observe, if not nil, is called on every state change.
func New(coord Coordinator, logger *slog.Logger, observe func(Transition)) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{
		coord:   coord,
		logger:  logger.With(slog.String("component", "workflow")),
		observe: observe,
	}
}

// Submit runs one attempt to completion. The returned Session is in Completed (nil
// error), Failed (the stage's error), or unchanged in Editing when the attempt was
// rejected in place (a ValidationError or ErrInvalidTransition).
func (w *Workflow) Submit(ctx context.Context, s Session) (Session, error) {
	next, err := Begin(s)
	if err != nil {
		return next, err
	}
	w.emit(s.state, next.state)
	s = next

	if s.documentID == "" {
		id, err := w.coord.Upload(ctx, *s.document)
		if err != nil {
			return w.fail(s, err), err
		}
		s.documentID = id
	}
	s = w.move(s, Processing)

	gr, err := model.NewGradingRequest(s.documentID, s.question, s.teacherAnswer)
	if err != nil {
		return w.fail(s, err), err
	}
	res, err := w.coord.Assess(ctx, gr)
	if err != nil {
		return w.fail(s, err), err
	}

	s.result = res
	s.message = "Answer processed successfully"
	s = w.move(s, Completed)
	w.logger.Info("submission completed",
		slog.String("document_id", s.documentID.String()),
		slog.Float64("score", res.Score),
	)
	return s, nil
}

func (w *Workflow) fail(s Session, err error) Session {
	s.err = err
	s.result = nil
	s.message = apperr.UserMessage(err)
	w.logger.Warn("submission failed",
		slog.String("stage", s.state.String()),
		slog.String("error", err.Error()),
	)
	return w.move(s, Failed)
}

func (w *Workflow) move(s Session, to State) Session {
	from := s.state
	s.state = to
	w.emit(from, to)
	return s
}

func (w *Workflow) emit(from, to State) {
	if w.observe != nil {
		w.observe(Transition{From: from, To: to})
	}
}

package model

import (
	"encoding/json"
	"strings"

	"github.com/hkao1210/A-PLUS-I/internal/apperr"
)

// GradingRequest is the input forwarded to the grading collaborator.
// Its fields are unexported so that a request can only be built by NewGradingRequest,
// which requires an already resolved DocumentID.
type GradingRequest struct {
	documentID    DocumentID
	question      string
	teacherAnswer string
}

// NewGradingRequest builds a grading request. Every field is required.
func NewGradingRequest(id DocumentID, question, teacherAnswer string) (GradingRequest, error) {
	var missing []string
	if strings.TrimSpace(string(id)) == "" {
		missing = append(missing, "document")
	}
	if strings.TrimSpace(question) == "" {
		missing = append(missing, "question")
	}
	if strings.TrimSpace(teacherAnswer) == "" {
		missing = append(missing, "reference answer")
	}
	if len(missing) > 0 {
		return GradingRequest{}, apperr.Missing(missing...)
	}
	return GradingRequest{documentID: id, question: question, teacherAnswer: teacherAnswer}, nil
}

func (r GradingRequest) DocumentID() DocumentID { return r.documentID }
func (r GradingRequest) Question() string       { return r.question }
func (r GradingRequest) TeacherAnswer() string  { return r.teacherAnswer }

type gradingRequestWire struct {
	DocumentID    DocumentID `json:"documentId"`
	Question      string     `json:"question"`
	TeacherAnswer string     `json:"teacherAnswer"`
}

// MarshalJSON encodes the request in the collaborator's wire shape.
func (r GradingRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(gradingRequestWire{
		DocumentID:    r.documentID,
		Question:      r.question,
		TeacherAnswer: r.teacherAnswer,
	})
}

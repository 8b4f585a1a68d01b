package model

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/hkao1210/A-PLUS-I/internal/apperr"
)

// Score bounds.
const (
	MinScore    = 0
	MaxScore    = 100
	MinSubScore = 0
	MaxSubScore = 4
)

// Recognized breakdown criteria. No other names are accepted or emitted.
const (
	CriterionAccuracy = "accuracy"
	CriterionClarity  = "clarity"
	CriterionConcepts = "concepts"
)

// Criteria lists the recognized breakdown names in display order.
var Criteria = []string{CriterionAccuracy, CriterionClarity, CriterionConcepts}

// Breakdown holds the named sub-scores of an assessment.
type Breakdown struct {
	Accuracy float64 `json:"accuracy"`
	Clarity  float64 `json:"clarity"`
	Concepts float64 `json:"concepts"`
}

// AssessmentResult is the normalized output of the grading collaborator.
// It is either fully populated or absent.
type AssessmentResult struct {
	Score     float64   `json:"score"`
	Breakdown Breakdown `json:"breakdown"`
	Feedback  string    `json:"feedback"`
}

// Validate checks the bounds and completeness rules of a result.
func (r AssessmentResult) Validate() error {
	if r.Score < MinScore || r.Score > MaxScore {
		return apperr.Malformed("score %v out of range %d..%d", r.Score, MinScore, MaxScore)
	}
	subs := map[string]float64{
		CriterionAccuracy: r.Breakdown.Accuracy,
		CriterionClarity:  r.Breakdown.Clarity,
		CriterionConcepts: r.Breakdown.Concepts,
	}
	for _, name := range Criteria {
		if v := subs[name]; v < MinSubScore || v > MaxSubScore {
			return apperr.Malformed("%s sub-score %v out of range %d..%d", name, v, MinSubScore, MaxSubScore)
		}
	}
	if strings.TrimSpace(r.Feedback) == "" {
		return apperr.Malformed("feedback is empty")
	}
	return nil
}

// rawResult mirrors the wire shape with pointers so absent fields can be told apart
// from zero values.
type rawResult struct {
	Score     *float64            `json:"score"`
	Breakdown map[string]*float64 `json:"breakdown"`
	Feedback  *string             `json:"feedback"`
}

// NormalizeResult parses a collaborator response body into an AssessmentResult.
// Any deviation (missing field, unknown or missing criterion, value out of range,
// empty feedback) yields a *apperr.GradingError; nothing is coerced.
func NormalizeResult(body []byte) (*AssessmentResult, error) {
	var raw rawResult
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &apperr.GradingError{Reason: "response is not a valid result", Err: err}
	}
	if raw.Score == nil {
		return nil, apperr.Malformed("score is missing")
	}
	if raw.Breakdown == nil {
		return nil, apperr.Malformed("breakdown is missing")
	}
	if raw.Feedback == nil {
		return nil, apperr.Malformed("feedback is missing")
	}

	var unknown []string
	for name := range raw.Breakdown {
		if !isCriterion(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, apperr.Malformed("unrecognized breakdown criteria: %s", strings.Join(unknown, ", "))
	}
	for _, name := range Criteria {
		if v, ok := raw.Breakdown[name]; !ok || v == nil {
			return nil, apperr.Malformed("breakdown %s is missing", name)
		}
	}

	res := &AssessmentResult{
		Score: *raw.Score,
		Breakdown: Breakdown{
			Accuracy: *raw.Breakdown[CriterionAccuracy],
			Clarity:  *raw.Breakdown[CriterionClarity],
			Concepts: *raw.Breakdown[CriterionConcepts],
		},
		Feedback: *raw.Feedback,
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

func isCriterion(name string) bool {
	for _, c := range Criteria {
		if c == name {
			return true
		}
	}
	return false
}

// Assessment is a persisted grading outcome for one document.
type Assessment struct {
	ID            string     `json:"id"`
	DocumentID    DocumentID `json:"documentId"`
	Question      string     `json:"question"`
	TeacherAnswer string     `json:"teacherAnswer"`
	AssessmentResult
	CreatedAt time.Time `json:"createdAt"`
}

// Package apperr defines the three error kinds the submission pipeline can produce
// and the mapping from each kind to a message that is safe to show a user.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is a caller/input fault: a missing field or an unsupported document type.
// It is raised before any network transfer takes place.
type ValidationError struct {
	// Fields lists the inputs that failed validation, e.g. "document", "question".
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s (%s)", e.Message, strings.Join(e.Fields, ", "))
}

// Missing returns a ValidationError for required inputs that were left empty.
func Missing(fields ...string) *ValidationError {
	return &ValidationError{
		Fields:  fields,
		Message: "missing required input: " + strings.Join(fields, ", "),
	}
}

// Invalid returns a ValidationError for a single field with a custom message.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []string{field}, Message: message}
}

// TransferError is a network or store fault: a non-success status, a timeout or a
// connectivity failure while moving document bytes.
type TransferError struct {
	// Op names the transfer that failed: "upload", "preview", "download", "list" or "grade".
	Op         string
	StatusCode int
	Timeout    bool
	Detail     string
	Err        error
}

func (e *TransferError) Error() string {
	var b strings.Builder
	b.WriteString("transfer ")
	b.WriteString(e.Op)
	switch {
	case e.Timeout:
		b.WriteString(": timeout")
	case e.StatusCode != 0:
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TransferError) Unwrap() error { return e.Err }

// GradingError means the grading collaborator answered but its result was malformed,
// incomplete, or it reported failure.
type GradingError struct {
	Reason     string
	StatusCode int
	Err        error
}

func (e *GradingError) Error() string {
	msg := "grading: " + e.Reason
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GradingError) Unwrap() error { return e.Err }

// Malformed returns a GradingError for a result that failed normalization.
func Malformed(format string, args ...any) *GradingError {
	return &GradingError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation, IsTransfer and IsGrading report whether err wraps the matching kind.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsTransfer(err error) bool {
	var t *TransferError
	return errors.As(err, &t)
}

func IsGrading(err error) bool {
	var g *GradingError
	return errors.As(err, &g)
}

// UserMessage converts any pipeline error into the text shown next to the failed action.
// Internal details such as wrapped causes are never included.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var v *ValidationError
	if errors.As(err, &v) {
		return v.Message
	}

	var t *TransferError
	if errors.As(err, &t) {
		what := "transfer document"
		switch t.Op {
		case "upload":
			what = "upload document"
		case "preview":
			what = "load preview"
		case "download":
			what = "download document"
		case "list":
			what = "list documents"
		case "grade":
			what = "reach grading service"
		}
		switch {
		case t.Timeout:
			return fmt.Sprintf("Failed to %s: request timed out", what)
		case t.StatusCode != 0:
			return fmt.Sprintf("Failed to %s: server responded with status %d", what, t.StatusCode)
		default:
			return fmt.Sprintf("Failed to %s: connection error", what)
		}
	}

	var g *GradingError
	if errors.As(err, &g) {
		return "Failed to process answer: " + g.Reason
	}

	return "An error occurred during processing"
}

package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsMatchThroughWrapping(t *testing.T) {
	v := fmt.Errorf("submit: %w", Missing("document"))
	tr := fmt.Errorf("submit: %w", &TransferError{Op: "upload", StatusCode: 500})
	g := fmt.Errorf("submit: %w", Malformed("missing feedback"))

	assert.True(t, IsValidation(v))
	assert.False(t, IsTransfer(v))
	assert.True(t, IsTransfer(tr))
	assert.False(t, IsGrading(tr))
	assert.True(t, IsGrading(g))
	assert.False(t, IsValidation(g))
}

func TestTransferErrorUnwrap(t *testing.T) {
	err := &TransferError{Op: "preview", Timeout: true, Err: context.DeadlineExceeded}

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "transfer preview: timeout")
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "missing file", err: Missing("document"), want: "missing required input: document"},
		{name: "upload status", err: &TransferError{Op: "upload", StatusCode: 500}, want: "Failed to upload document: server responded with status 500"},
		{name: "upload timeout", err: &TransferError{Op: "upload", Timeout: true}, want: "Failed to upload document: request timed out"},
		{name: "connection", err: &TransferError{Op: "download", Err: errors.New("refused")}, want: "Failed to download document: connection error"},
		{name: "grading", err: Malformed("missing feedback"), want: "Failed to process answer: missing feedback"},
		{name: "unknown", err: errors.New("boom"), want: "An error occurred during processing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkao1210/A-PLUS-I/internal/apperr"
)

func TestResolveMediaType(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		declared string
		want     string
		wantErr  bool
	}{
		{name: "declared pdf", filename: "answer.bin", declared: "application/pdf", want: MediaTypePDF},
		{name: "declared text with charset", filename: "a", declared: "text/plain; charset=utf-8", want: MediaTypeText},
		{name: "pdf by extension", filename: "Answer.PDF", want: MediaTypePDF},
		{name: "octet-stream falls back to extension", filename: "answer.txt", declared: "application/octet-stream", want: MediaTypeText},
		{name: "image rejected", filename: "scan.png", declared: "image/png", wantErr: true},
		{name: "unknown extension rejected", filename: "answer.docx", wantErr: true},
		{name: "nothing to go on", filename: "answer", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveMediaType(tt.filename, tt.declared)
			if tt.wantErr {
				assert.True(t, apperr.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDocumentFile_Validate(t *testing.T) {
	err := DocumentFile{Name: "a.pdf"}.Validate()
	assert.True(t, apperr.IsValidation(err))

	err = DocumentFile{Name: "a.pdf", Content: []byte("%PDF-1.4")}.Validate()
	assert.NoError(t, err)
}

func TestNewGradingRequest(t *testing.T) {
	_, err := NewGradingRequest("", "What is a stack?", "LIFO")
	var v *apperr.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, []string{"document"}, v.Fields)

	_, err = NewGradingRequest("doc-1", "  ", "")
	require.ErrorAs(t, err, &v)
	assert.Equal(t, []string{"question", "reference answer"}, v.Fields)

	req, err := NewGradingRequest("doc-1", "What is a stack?", "LIFO")
	require.NoError(t, err)
	b, err := req.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"documentId":"doc-1","question":"What is a stack?","teacherAnswer":"LIFO"}`, string(b))
}

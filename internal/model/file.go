package model

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/hkao1210/A-PLUS-I/internal/apperr"
)

// Supported document media types.
const (
	MediaTypePDF  = "application/pdf"
	MediaTypeText = "text/plain"
)

// DocumentFile is a document selected locally and not yet uploaded: its bytes plus the
// metadata sent alongside them.
type DocumentFile struct {
	Name        string
	ContentType string
	Content     []byte
}

// MediaType resolves the file's media type and rejects anything that is not a PDF or
// plain text. The declared content type wins; the extension is used when none is declared.
func (f DocumentFile) MediaType() (string, error) {
	return ResolveMediaType(f.Name, f.ContentType)
}

// Validate checks that the file has content and a supported type.
func (f DocumentFile) Validate() error {
	if len(f.Content) == 0 {
		return apperr.Missing("document")
	}
	_, err := f.MediaType()
	return err
}

// ResolveMediaType normalizes a declared content type (or guesses it from the filename)
// and reports a ValidationError for unsupported document types.
func ResolveMediaType(filename, declared string) (string, error) {
	ct := strings.TrimSpace(declared)
	if ct == "" || ct == "application/octet-stream" {
		ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", apperr.Invalid("document", "Please upload a PDF or text file")
	}
	switch mt {
	case MediaTypePDF, MediaTypeText:
		return mt, nil
	default:
		return "", apperr.Invalid("document", "Please upload a PDF or text file")
	}
}

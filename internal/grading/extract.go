package grading

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/hkao1210/A-PLUS-I/internal/model"
)

// ErrNoText is returned when a document yields no gradable text.
var ErrNoText = errors.New("document contains no extractable text")

// maxAnswerRunes caps the student text placed in a prompt.
const maxAnswerRunes = 20000

// ExtractText returns the student's answer from a stored document.
// Plain text is used as-is; PDFs go through text extraction.
func ExtractText(contentType string, data []byte) (string, error) {
	mt, err := model.ResolveMediaType("", contentType)
	if err != nil {
		return "", err
	}

	var text string
	switch mt {
	case model.MediaTypeText:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("text document is not valid UTF-8")
		}
		text = string(data)
	case model.MediaTypePDF:
		text, err = pdfText(data)
		if err != nil {
			return "", err
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoText
	}
	return truncateRunes(text, maxAnswerRunes), nil
}

func pdfText(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed object streams.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract pdf text: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return string(b), nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkao1210/A-PLUS-I/internal/config"
	"github.com/hkao1210/A-PLUS-I/internal/model"
	"github.com/hkao1210/A-PLUS-I/internal/transfer"
)

type fakeAPI struct {
	uploads atomic.Int32
	grades  atomic.Int32
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case transfer.UploadPath:
		f.uploads.Add(1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"doc-7"}`))
	case transfer.GradePath:
		f.grades.Add(1)
		_, _ = w.Write([]byte(`{"score":92,"breakdown":{"accuracy":4,"clarity":3.5,"concepts":3.5},"feedback":"Clear LIFO explanation"}`))
	case transfer.ListPath:
		_, _ = w.Write([]byte(`[{"id":"doc-7","filename":"answer.txt","uploadDate":"2024-03-01T10:00:00Z"}]`))
	case transfer.PreviewPath + "doc-7":
		w.Header().Set("Content-Type", model.MediaTypeText)
		w.Header().Set("Content-Disposition", `inline; filename="answer.txt"`)
		_, _ = w.Write([]byte("A stack is LIFO."))
	case transfer.DownloadPath + "doc-7":
		w.Header().Set("Content-Type", model.MediaTypeText)
		w.Header().Set("Content-Disposition", `attachment; filename="answer.txt"`)
		_, _ = w.Write([]byte("A stack is LIFO."))
	case transfer.DownloadPath + "doc-8":
		w.Header().Set("Content-Type", model.MediaTypePDF)
		_, _ = w.Write([]byte("%PDF-1.4"))
	default:
		http.NotFound(w, r)
	}
}

func setup(t *testing.T) (*fakeAPI, config.ClientConfig) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, config.ClientConfig{APIURL: srv.URL}
}

func writeAnswer(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "answer.txt")
	require.NoError(t, os.WriteFile(path, []byte("A stack is LIFO."), 0o600))
	return path
}

func TestRun_Submit(t *testing.T) {
	api, cfg := setup(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{
		"submit", "-file", writeAnswer(t), "-question", "What is a stack?", "-answer", "LIFO structure",
	}, cfg, &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	out := stdout.String()
	assert.Contains(t, out, "editing → uploading")
	assert.Contains(t, out, "uploading → processing")
	assert.Contains(t, out, "processing → completed")
	assert.Contains(t, out, "Score: 92.0 / 100")
	assert.Contains(t, out, "Clear LIFO explanation")
	assert.EqualValues(t, 1, api.uploads.Load())
	assert.EqualValues(t, 1, api.grades.Load())
}

func TestRun_SubmitMissingFields(t *testing.T) {
	api, cfg := setup(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"submit", "-question", "What is a stack?"}, cfg, &stdout, &stderr)

	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "document")
	assert.Zero(t, api.uploads.Load())
}

func TestRun_SubmitUnsupportedType(t *testing.T) {
	api, cfg := setup(t)
	path := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0o600))
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{
		"submit", "-file", path, "-question", "Q", "-answer", "A",
	}, cfg, &stdout, &stderr)

	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "Please upload a PDF or text file")
	assert.Zero(t, api.uploads.Load())
}

func TestRun_List(t *testing.T) {
	_, cfg := setup(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"list"}, cfg, &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "doc-7")
	assert.Contains(t, stdout.String(), "answer.txt")
}

func TestRun_PreviewText(t *testing.T) {
	_, cfg := setup(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"preview", "-id", "doc-7"}, cfg, &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "A stack is LIFO.")
	assert.Contains(t, stdout.String(), "preview://cli/")
}

func TestRun_Download(t *testing.T) {
	_, cfg := setup(t)
	out := filepath.Join(t.TempDir(), "copy.txt")
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"download", "-id", "doc-7", "-out", out}, cfg, &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "A stack is LIFO.", string(data))
}

func TestRun_DownloadWithoutFilename(t *testing.T) {
	_, cfg := setup(t)
	dir := t.TempDir()
	t.Chdir(dir)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"download", "-id", "doc-8"}, cfg, &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	data, err := os.ReadFile(filepath.Join(dir, "doc-8.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestLocalName(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		id          model.DocumentID
		contentType string
		want        string
	}{
		{name: "store filename", filename: "answer.pdf", id: "doc-1", contentType: model.MediaTypePDF, want: "answer.pdf"},
		{name: "path is stripped", filename: "../../etc/answer.txt", id: "doc-1", want: "answer.txt"},
		{name: "no filename pdf", id: "doc-1", contentType: model.MediaTypePDF, want: "doc-1.pdf"},
		{name: "no filename text with charset", id: "doc-1", contentType: "text/plain; charset=utf-8", want: "doc-1.txt"},
		{name: "dot dot", filename: "..", id: "doc-1", contentType: "application/octet-stream", want: "doc-1"},
		{name: "root", filename: "/", id: "doc-1", contentType: model.MediaTypeText, want: "doc-1.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, localName(tt.filename, tt.id, tt.contentType))
		})
	}
}

func TestRun_FetchFailures(t *testing.T) {
	_, cfg := setup(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "missing id", args: []string{"preview"}, want: exitUsage},
		{name: "unknown document", args: []string{"preview", "-id", "nope"}, want: exitFail},
		{name: "unknown command", args: []string{"grade"}, want: exitUsage},
		{name: "no command", args: nil, want: exitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.want, run(context.Background(), tt.args, cfg, &stdout, &stderr))
		})
	}
}

// Package transfer is the HTTP client for the document store and grading collaborator.
// It uploads documents, fetches them for preview or download, lists them and forwards
// grading requests. The client holds no submission state and never retries: a failed
// attempt surfaces to the caller immediately.
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hkao1210/A-PLUS-I/internal/apperr"
	"github.com/hkao1210/A-PLUS-I/internal/model"
)

// Endpoint paths served by the document store.
const (
	UploadPath   = "/api/upload-pdf"
	ListPath     = "/api/pdfs"
	PreviewPath  = "/api/preview-pdf/"
	DownloadPath = "/api/download-pdf/"
	GradePath    = "/api/process-answer"

	// FileField is the multipart field carrying the uploaded document.
	FileField = "file"
)

// Listing parameters. ListPageSize matches the store's largest accepted page.
const (
	TotalCountHeader = "X-Total-Count"
	ListPageSize     = 100
)

// maxErrorBody bounds how much of a failed response is kept as error detail.
const maxErrorBody = 512

// Client talks to the document store over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// New creates a transfer client.
// baseURL is the store root, e.g. http://localhost:8080.
// timeout bounds every call; zero leaves the bound to the underlying transport.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid store url %q", baseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With(slog.String("component", "transfer_client")),
	}, nil
}

// Upload sends the document to the store and returns the identifier it assigned.
// Unsupported document types are rejected with a ValidationError before any network I/O.
func (c *Client) Upload(ctx context.Context, f model.DocumentFile) (model.DocumentID, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}
	mediaType, _ := f.MediaType()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FileField, escapeQuotes(f.Name)))
	h.Set("Content-Type", mediaType)
	part, err := w.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(f.Content); err != nil {
		return "", fmt.Errorf("write multipart part: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+UploadPath, &body)
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.do(req, "upload")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "upload"); err != nil {
		return "", err
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &apperr.TransferError{Op: "upload", Timeout: isTimeout(err), Detail: "decode response", Err: err}
	}
	if strings.TrimSpace(out.ID) == "" {
		return "", &apperr.TransferError{Op: "upload", StatusCode: resp.StatusCode, Detail: "response carried no document id"}
	}

	c.logger.Debug("document uploaded",
		slog.String("document_id", out.ID),
		slog.String("filename", f.Name),
		slog.Int("bytes", len(f.Content)),
	)
	return model.DocumentID(out.ID), nil
}

// FetchForPreview reads a document for inline display.
func (c *Client) FetchForPreview(ctx context.Context, id model.DocumentID) (*model.Blob, error) {
	return c.fetch(ctx, "preview", PreviewPath, id)
}

// FetchForDownload reads a document for delivery as a file.
// The store serves the same bytes as for preview, with an attachment disposition.
func (c *Client) FetchForDownload(ctx context.Context, id model.DocumentID) (*model.Blob, error) {
	return c.fetch(ctx, "download", DownloadPath, id)
}

func (c *Client) fetch(ctx context.Context, op, prefix string, id model.DocumentID) (*model.Blob, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, apperr.Missing("document")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+prefix+url.PathEscape(string(id)), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", op, err)
	}

	resp, err := c.do(req, op)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, op); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.TransferError{Op: op, Timeout: isTimeout(err), Detail: "read body", Err: err}
	}

	return &model.Blob{
		Filename:    filenameFromDisposition(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// List returns every stored document ordered by upload time. It pages through the
// listing with ListPageSize until the store's X-Total-Count is reached. A store that
// sends no total is taken to have returned the whole collection in one page.
func (c *Client) List(ctx context.Context) ([]model.Document, error) {
	var all []model.Document
	for {
		page, total, err := c.listPage(ctx, ListPageSize, len(all))
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if total < 0 || len(page) == 0 || len(all) >= total {
			break
		}
	}
	if all == nil {
		all = []model.Document{}
	}
	return all, nil
}

// listPage fetches one page. total is -1 when the store omits TotalCountHeader.
func (c *Client) listPage(ctx context.Context, limit, offset int) ([]model.Document, int, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+ListPath+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create list request: %w", err)
	}

	resp, err := c.do(req, "list")
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "list"); err != nil {
		return nil, 0, err
	}

	var docs []model.Document
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		return nil, 0, &apperr.TransferError{Op: "list", Timeout: isTimeout(err), Detail: "decode response", Err: err}
	}

	total := -1
	if v := resp.Header.Get(TotalCountHeader); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, 0, &apperr.TransferError{Op: "list", Detail: "invalid " + TotalCountHeader + " " + strconv.Quote(v)}
		}
		total = n
	}
	return docs, total, nil
}

// Grade forwards a grading request and returns the raw response body for normalization.
// Connectivity failures and timeouts are TransferErrors; a non-2xx answer from the
// collaborator is a GradingError.
func (c *Client) Grade(ctx context.Context, gr model.GradingRequest) ([]byte, error) {
	payload, err := json.Marshal(gr)
	if err != nil {
		return nil, fmt.Errorf("encode grading request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+GradePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create grading request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req, "grade")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.TransferError{Op: "grade", Timeout: isTimeout(err), Detail: "read body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("grading collaborator reported failure",
			slog.Int("status", resp.StatusCode),
			slog.String("document_id", gr.DocumentID().String()),
		)
		return nil, &apperr.GradingError{Reason: "grading service reported failure", StatusCode: resp.StatusCode}
	}
	return body, nil
}

func (c *Client) do(req *http.Request, op string) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			slog.String("op", op),
			slog.String("url", req.URL.Redacted()),
			slog.String("error", err.Error()),
		)
		return nil, &apperr.TransferError{Op: op, Timeout: isTimeout(err), Err: err}
	}
	return resp, nil
}

// checkStatus turns a non-2xx response into a TransferError carrying the status detail.
func checkStatus(resp *http.Response, op string) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &apperr.TransferError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Detail:     strings.TrimSpace(string(snippet)),
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func filenameFromDisposition(v string) string {
	if v == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(v)
	if err != nil {
		return ""
	}
	return params["filename"]
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }

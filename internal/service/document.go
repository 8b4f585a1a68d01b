package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hkao1210/A-PLUS-I/internal/config"
	"github.com/hkao1210/A-PLUS-I/internal/model"
	"github.com/hkao1210/A-PLUS-I/internal/repository"
	"github.com/hkao1210/A-PLUS-I/internal/storage"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("document not found")
	ErrReaderNil  = errors.New("reader is nil")
	ErrTooLarge   = errors.New("document exceeds the upload size limit")
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	storagePrefix   = "documents"
)

// DocumentListResult is one page of documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentService stores student documents and serves them back.
type DocumentService interface {
	// Upload validates the media type and size, stores the content under
	// documents/<id><ext> and saves the metadata. The object is removed again when the
	// metadata cannot be saved.
	Upload(ctx context.Context, r io.Reader, originalFilename string, contentType string, size int64) (*model.Document, error)

	// List returns documents newest first.
	List(ctx context.Context, limit, offset int) (*DocumentListResult, error)

	Get(ctx context.Context, id model.DocumentID) (*model.Document, error)

	// Open streams a document's content. The caller closes the reader.
	Open(ctx context.Context, id model.DocumentID) (io.ReadCloser, *model.Document, error)

	// Delete removes a document from storage and the database.
	Delete(ctx context.Context, id model.DocumentID) error
}

type documentService struct {
	store     storage.Storage
	repo      repository.DocumentRepository
	cache     *documentCache
	maxUpload int64
}

// NewDocumentService constructs a DocumentService. A zero MaxUploadBytes disables the
// size check and a zero CacheSize disables the metadata cache.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, cfg config.DocumentConfig) DocumentService {
	return &documentService{
		store:     store,
		repo:      repo,
		cache:     newDocumentCache(cfg.CacheSize, cfg.CacheTTL),
		maxUpload: cfg.MaxUploadBytes,
	}
}

func (s *documentService) Upload(ctx context.Context, r io.Reader, originalFilename string, contentType string, size int64) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	mediaType, err := model.ResolveMediaType(originalFilename, contentType)
	if err != nil {
		return nil, err
	}
	if s.maxUpload > 0 && size > s.maxUpload {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, size, s.maxUpload)
	}

	id := uuid.New().String()
	key := path.Join(storagePrefix, id+strings.ToLower(filepath.Ext(originalFilename)))
	name := displayName(originalFilename)

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: mediaType,
		Metadata: map[string]string{
			"original-filename": name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	doc := &model.Document{
		ID:          model.DocumentID(id),
		Filename:    name,
		StoragePath: objInfo.Key,
		Size:        objInfo.Size,
		ContentType: mediaType,
		CreatedAt:   time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		if delErr := s.store.Delete(ctx, objInfo.Key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	s.cache.set(stored)
	return stored, nil
}

func (s *documentService) List(ctx context.Context, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *documentService) Get(ctx context.Context, id model.DocumentID) (*model.Document, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, ErrIDRequired
	}
	if doc, ok := s.cache.get(id); ok {
		return doc, nil
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.cache.set(doc)
	return doc, nil
}

func (s *documentService) Open(ctx context.Context, id model.DocumentID) (io.ReadCloser, *model.Document, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			// Metadata without content: treat the document as gone.
			s.cache.remove(id)
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	return rc, doc, nil
}

func (s *documentService) Delete(ctx context.Context, id model.DocumentID) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	s.cache.remove(id)

	// Storage first: a failed object delete keeps the row that points at it.
	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// displayName strips any client-side directory from an uploaded filename.
func displayName(original string) string {
	name := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "document"
	}
	return name
}

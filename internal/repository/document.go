package repository

import (
	"context"

	"github.com/hkao1210/A-PLUS-I/internal/model"
)

// DocumentRepository persists document metadata.
type DocumentRepository interface {
	// Create inserts a document row and returns it as stored.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns ErrNotFound when no document has the id.
	FindByID(ctx context.Context, id model.DocumentID) (*model.Document, error)

	// List returns one page ordered by upload time, newest first, with the total count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Document], error)

	// Delete removes a document and, by cascade, its assessments.
	// It returns ErrNotFound when nothing was deleted.
	Delete(ctx context.Context, id model.DocumentID) error
}

package model

import "time"

// DocumentID is the opaque, store-assigned identifier of an uploaded document.
// It is stable for the document's lifetime.
type DocumentID string

func (id DocumentID) String() string { return string(id) }

// Document represents a stored file in the system.
// This is a pure domain model with no database-specific dependencies or tags.
type Document struct {
	ID          DocumentID `json:"id"`
	Filename    string     `json:"filename"`
	StoragePath string     `json:"-"`
	Size        int64      `json:"size"`
	ContentType string     `json:"contentType"`
	CreatedAt   time.Time  `json:"uploadDate"`
}

// Blob is a document's binary payload as returned by the store for preview or download.
type Blob struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Package store persists named construction documents.
//
// Two backends implement the Store interface:
//   - memory: in-process storage for development and testing
//   - mongo: MongoDB-backed storage for the server
//
// Documents are stored in their canonical serialization form
// (construction.Document); positions of dependent elements are
// re-evaluated on load, so the stored form stays small and
// forward-compatible.
package store

import (
	"context"

	"github.com/loci-dev/loci/pkg/construction"
)

// Store persists construction documents by name.
type Store interface {
	// Save stores or replaces a named document.
	Save(ctx context.Context, name string, doc construction.Document) error
	// Load retrieves a document. Missing names return NOT_FOUND.
	Load(ctx context.Context, name string) (construction.Document, error)
	// List returns all stored names, sorted.
	List(ctx context.Context) ([]string, error)
	// Delete removes a document. Missing names return NOT_FOUND.
	Delete(ctx context.Context, name string) error
	// Close releases backend resources.
	Close(ctx context.Context) error
}

// Package repository defines the content store boundary.
//
// The store is a document database: named collections of documents, each
// document a flat set of fields keyed by a string id. Implementations live
// in the subpackages (sqlstore for SQLite/MySQL, memory for dev and tests).
package repository

import (
	"context"
)

// Fields is the body of one document.
type Fields map[string]any

// Document is a stored document together with its id.
type Document struct {
	ID     string
	Fields Fields
}

// ContentStore is the document store used by every service.
//
// Contract:
//   - Get returns apperror.ErrNotFound when the document does not exist.
//   - Set fully overwrites (or creates) the document at a fixed id.
//   - Add creates a document under a store-assigned unique id and returns it.
//   - Update merges the given fields into an existing document and returns
//     apperror.ErrNotFound when it does not exist.
//   - Delete removes the document; deleting a missing document is not an error.
//   - List order is unspecified.
type ContentStore interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	List(ctx context.Context, collection string) ([]Document, error)
	Set(ctx context.Context, collection, id string, fields Fields) error
	Add(ctx context.Context, collection string, fields Fields) (string, error)
	Update(ctx context.Context, collection, id string, fields Fields) error
	Delete(ctx context.Context, collection, id string) error
}

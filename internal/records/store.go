package records

import (
	"context"
	"errors"
)

// Collection names used by the service.
const (
	CollectionHouseholds = "households"
	CollectionUsers      = "users"
	CollectionInvites    = "householdInvites"
)

var (
	// ErrNotFound indicates no record exists for the (collection, id) pair.
	ErrNotFound = errors.New("records: not found")
	// ErrAlreadyExists indicates a record with the same id is already stored.
	ErrAlreadyExists = errors.New("records: already exists")
)

// Store is the document-oriented record store consumed by the services layer.
// Documents are addressed by collection and id and serialized as JSON.
type Store interface {
	// Get unmarshals the document with the given id into out.
	Get(ctx context.Context, collection, id string, out any) error
	// Put fully replaces (or creates) the document with the given id.
	Put(ctx context.Context, collection, id string, doc any) error
	// Create stores a new document, failing with ErrAlreadyExists when the id
	// is taken.
	Create(ctx context.Context, collection, id string, doc any) error
	// Patch merges the given top-level fields into the stored document.
	Patch(ctx context.Context, collection, id string, fields map[string]any) error
	// Delete removes the document. Deleting an absent document is not an error.
	Delete(ctx context.Context, collection, id string) error
	// FindEqual unmarshals every document whose top-level field equals value
	// into out, which must be a pointer to a slice.
	FindEqual(ctx context.Context, collection, field string, value any, out any) error
}

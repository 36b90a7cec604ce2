// Package docstore defines the hierarchical document store the clinic API
// persists into. Backends live in internal/couchbase and internal/redisstore.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"time"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrLocked is returned when a lock document is already held.
	ErrLocked = errors.New("document locked")
	// ErrInvalidField is returned for filter fields that are not plain identifiers.
	ErrInvalidField = errors.New("invalid field name")
)

// Snapshot is a document read back from the store.
type Snapshot struct {
	ID   string
	Data json.RawMessage
}

// DataTo decodes the document body into v.
func (s Snapshot) DataTo(v interface{}) error {
	return json.Unmarshal(s.Data, v)
}

// Store is the document store contract. Every method is atomic for a
// single document only; multi-document sequences are not isolated.
type Store interface {
	Locker

	// Get reads one document, ErrNotFound when absent.
	Get(ctx context.Context, c Collection, id string) (Snapshot, error)
	// Set writes the whole document, creating or replacing it.
	Set(ctx context.Context, c Collection, id string, doc interface{}) error
	// Update merges top-level fields into an existing document.
	Update(ctx context.Context, c Collection, id string, fields map[string]interface{}) error
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, c Collection, id string) error
	// Add inserts a document under a store-assigned random id.
	Add(ctx context.Context, c Collection, doc interface{}) (string, error)
	// Stream returns every document of the collection ordered by id.
	Stream(ctx context.Context, c Collection) ([]Snapshot, error)
	// Where returns documents whose field equals value, ordered by id.
	// A limit <= 0 means no limit.
	Where(ctx context.Context, c Collection, field string, value interface{}, limit int) ([]Snapshot, error)

	Ping(ctx context.Context) error
	Close() error
}

// Locker hands out short-lived named locks stored alongside the data.
type Locker interface {
	// Lock acquires key for ttl or returns ErrLocked if it is held. The
	// returned token identifies this holder.
	Lock(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Unlock releases key only while it is still held under token.
	Unlock(ctx context.Context, key, token string) error
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateField rejects filter fields that cannot be safely embedded in a query.
func ValidateField(field string) error {
	if !fieldPattern.MatchString(field) {
		return ErrInvalidField
	}
	return nil
}

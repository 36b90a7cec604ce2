// Package couchbase implements the document store on a Couchbase scope.
// Each store collection maps to the Couchbase collection named after its
// last path segment.
package couchbase

import (
	"context"
	"time"

	"stealthcompany.com/clinic/internal/docstore"
)

// Client represents a Couchbase client that orchestrates all operations
type Client struct {
	connManager *ConnectionManager
	docManager  *DocumentManager
	locker      *DatabaseLocker
}

var _ docstore.Store = (*Client)(nil)

// NewClient creates a new Couchbase client
func NewClient(cfg Config) (*Client, error) {
	connManager, err := NewConnectionManager(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		connManager: connManager,
		docManager:  NewDocumentManager(connManager),
		locker:      NewDatabaseLocker(connManager, "clinic-api"),
	}, nil
}

// Close closes the Couchbase connection
func (c *Client) Close() error {
	return c.connManager.Close()
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.connManager.Ping(ctx)
}

// EnsureSchema creates the collections the given names map to.
func (c *Client) EnsureSchema(ctx context.Context, collections []string) error {
	names := append([]string{}, collections...)
	return NewScopeModel(c.connManager).EnsureCollections(ctx, append(names, LockCollection))
}

func (c *Client) Get(ctx context.Context, coll docstore.Collection, id string) (docstore.Snapshot, error) {
	return c.docManager.GetDocument(ctx, coll, id)
}

func (c *Client) Set(ctx context.Context, coll docstore.Collection, id string, doc interface{}) error {
	return c.docManager.UpsertDocument(ctx, coll, id, doc)
}

func (c *Client) Update(ctx context.Context, coll docstore.Collection, id string, fields map[string]interface{}) error {
	return c.docManager.UpdateDocument(ctx, coll, id, fields)
}

func (c *Client) Delete(ctx context.Context, coll docstore.Collection, id string) error {
	return c.docManager.DeleteDocument(ctx, coll, id)
}

func (c *Client) Add(ctx context.Context, coll docstore.Collection, doc interface{}) (string, error) {
	return c.docManager.InsertDocument(ctx, coll, doc)
}

func (c *Client) Stream(ctx context.Context, coll docstore.Collection) ([]docstore.Snapshot, error) {
	return c.docManager.QueryDocuments(ctx, coll, "", nil, 0)
}

func (c *Client) Where(ctx context.Context, coll docstore.Collection, field string, value interface{}, limit int) ([]docstore.Snapshot, error) {
	if err := docstore.ValidateField(field); err != nil {
		return nil, err
	}
	return c.docManager.QueryDocuments(ctx, coll, field, value, limit)
}

func (c *Client) Lock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return c.locker.Lock(ctx, key, ttl)
}

func (c *Client) Unlock(ctx context.Context, key, token string) error {
	return c.locker.Unlock(ctx, key, token)
}

package couchbase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"stealthcompany.com/clinic/internal/docstore"
	"stealthcompany.com/clinic/internal/metrics"
)

const backendName = "couchbase"

// DocumentManager handles document CRUD operations
type DocumentManager struct {
	conn *ConnectionManager
}

// NewDocumentManager creates a new document manager
func NewDocumentManager(conn *ConnectionManager) *DocumentManager {
	return &DocumentManager{conn: conn}
}

// queryRow is a row of the collection scan queries
type queryRow struct {
	ID       string          `json:"id"`
	Resource json.RawMessage `json:"resource"`
}

func record(operation string, start time.Time, err error) {
	status := "success"
	switch {
	case errors.Is(err, gocb.ErrDocumentNotFound):
		status = "miss"
	case err != nil:
		status = "error"
	}
	metrics.RecordStoreOperation(backendName, operation, status, time.Since(start))
}

// GetDocument reads one document
func (dm *DocumentManager) GetDocument(ctx context.Context, c docstore.Collection, id string) (docstore.Snapshot, error) {
	key := docKey(c, id)

	start := time.Now()
	result, err := dm.conn.Collection(c.Name()).Get(key, &gocb.GetOptions{Context: ctx})
	record("get", start, err)
	if err != nil {
		if errors.Is(err, gocb.ErrDocumentNotFound) {
			return docstore.Snapshot{}, docstore.ErrNotFound
		}
		return docstore.Snapshot{}, fmt.Errorf("failed to get document %s: %w", key, err)
	}

	var data json.RawMessage
	if err := result.Content(&data); err != nil {
		return docstore.Snapshot{}, fmt.Errorf("failed to decode document %s: %w", key, err)
	}

	log.Debug().
		Str("doc_id", key).
		Dur("duration", time.Since(start)).
		Msg("Successfully retrieved document")
	return docstore.Snapshot{ID: id, Data: data}, nil
}

// UpsertDocument stores or replaces a document
func (dm *DocumentManager) UpsertDocument(ctx context.Context, c docstore.Collection, id string, doc interface{}) error {
	key := docKey(c, id)

	start := time.Now()
	_, err := dm.conn.Collection(c.Name()).Upsert(key, doc, &gocb.UpsertOptions{Context: ctx})
	record("upsert", start, err)
	if err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", key, err)
	}

	log.Debug().
		Str("doc_id", key).
		Dur("duration", time.Since(start)).
		Msg("Successfully upserted document")
	return nil
}

// InsertDocument stores a document under a fresh random id
func (dm *DocumentManager) InsertDocument(ctx context.Context, c docstore.Collection, doc interface{}) (string, error) {
	id := uuid.NewString()
	key := docKey(c, id)

	start := time.Now()
	_, err := dm.conn.Collection(c.Name()).Insert(key, doc, &gocb.InsertOptions{Context: ctx})
	record("insert", start, err)
	if err != nil {
		return "", fmt.Errorf("failed to insert document %s: %w", key, err)
	}
	return id, nil
}

// UpdateDocument upserts the given top-level fields of an existing document
func (dm *DocumentManager) UpdateDocument(ctx context.Context, c docstore.Collection, id string, fields map[string]interface{}) error {
	key := docKey(c, id)

	specs := make([]gocb.MutateInSpec, 0, len(fields))
	for field, value := range fields {
		specs = append(specs, gocb.UpsertSpec(field, value, nil))
	}
	if len(specs) == 0 {
		return nil
	}

	start := time.Now()
	_, err := dm.conn.Collection(c.Name()).MutateIn(key, specs, &gocb.MutateInOptions{Context: ctx})
	record("mutate_in", start, err)
	if err != nil {
		if errors.Is(err, gocb.ErrDocumentNotFound) {
			return docstore.ErrNotFound
		}
		return fmt.Errorf("failed to update document %s: %w", key, err)
	}
	return nil
}

// DeleteDocument removes a document, ignoring missing ones
func (dm *DocumentManager) DeleteDocument(ctx context.Context, c docstore.Collection, id string) error {
	key := docKey(c, id)

	start := time.Now()
	_, err := dm.conn.Collection(c.Name()).Remove(key, &gocb.RemoveOptions{Context: ctx})
	record("remove", start, err)
	if err != nil && !errors.Is(err, gocb.ErrDocumentNotFound) {
		return fmt.Errorf("failed to delete document %s: %w", key, err)
	}
	return nil
}

// QueryDocuments scans the collection, optionally filtering on field == value
func (dm *DocumentManager) QueryDocuments(ctx context.Context, c docstore.Collection, field string, value interface{}, limit int) ([]docstore.Snapshot, error) {
	statement, params, err := buildScanQuery(dm.conn.Keyspace(c.Name()), c, field, value, limit)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := dm.conn.Scope().Query(statement, &gocb.QueryOptions{
		Context:         ctx,
		NamedParameters: params,
		ScanConsistency: gocb.QueryScanConsistencyRequestPlus,
	})
	record("query", start, err)
	if err != nil {
		log.Error().
			Err(err).
			Str("query", statement).
			Msg("Query failed")
		return nil, fmt.Errorf("query %s failed: %w", c, err)
	}
	defer rows.Close()

	var snapshots []docstore.Snapshot
	for rows.Next() {
		var row queryRow
		if err := rows.Row(&row); err != nil {
			log.Warn().
				Err(err).
				Str("collection", c.Path()).
				Msg("Failed to decode query row")
			continue
		}
		snapshots = append(snapshots, docstore.Snapshot{ID: idFromKey(c, row.ID), Data: row.Resource})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s failed: %w", c, err)
	}

	log.Debug().
		Str("collection", c.Path()).
		Int("resultCount", len(snapshots)).
		Dur("duration", time.Since(start)).
		Msg("Documents queried successfully")
	return snapshots, nil
}

// buildScanQuery renders the N1QL statement for a collection scan. Only
// the field name is interpolated and it has been validated beforehand.
func buildScanQuery(keyspace string, c docstore.Collection, field string, value interface{}, limit int) (string, map[string]interface{}, error) {
	from, to := keyRange(c)
	params := map[string]interface{}{
		"from": from,
		"to":   to,
	}

	statement := fmt.Sprintf("SELECT META(d).id AS id, d AS resource FROM %s AS d WHERE META(d).id >= $from AND META(d).id < $to", keyspace)
	if field != "" {
		if err := docstore.ValidateField(field); err != nil {
			return "", nil, fmt.Errorf("%w: %q", err, field)
		}
		statement += fmt.Sprintf(" AND d.`%s` = $value", field)
		params["value"] = value
	}
	statement += " ORDER BY META(d).id"
	if limit > 0 {
		statement += fmt.Sprintf(" LIMIT %d", limit)
	}
	return statement, params, nil
}

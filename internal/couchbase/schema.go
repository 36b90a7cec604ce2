package couchbase

import (
	"context"
	"fmt"
	"strings"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"
)

// ScopeModel creates the collections and indexes the store needs
type ScopeModel struct {
	conn *ConnectionManager
}

// NewScopeModel creates a new scope model
func NewScopeModel(conn *ConnectionManager) *ScopeModel {
	return &ScopeModel{conn: conn}
}

// EnsureCollections creates every named collection with a primary index.
// Existing collections and indexes are left alone.
func (sm *ScopeModel) EnsureCollections(ctx context.Context, collections []string) error {
	cluster := sm.conn.GetCluster()

	for _, name := range collections {
		keyspace := sm.conn.Keyspace(name)

		_, err := cluster.Query("CREATE COLLECTION "+keyspace, &gocb.QueryOptions{Context: ctx})
		if err != nil {
			if !isExistsError(err) {
				return fmt.Errorf("failed to create collection %s: %w", name, err)
			}
			log.Debug().Str("collection", name).Msg("Collection already exists")
		} else {
			log.Info().Str("collection", name).Msg("Collection created successfully")
		}

		_, err = cluster.Query("CREATE PRIMARY INDEX IF NOT EXISTS ON "+keyspace, &gocb.QueryOptions{Context: ctx})
		if err != nil {
			log.Warn().
				Err(err).
				Str("collection", name).
				Msg("Failed to create primary index (may already exist)")
		}
	}

	log.Info().Int("collections", len(collections)).Msg("Document store schema ready")
	return nil
}

// isExistsError checks if the error indicates the keyspace already exists
func isExistsError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate")
}

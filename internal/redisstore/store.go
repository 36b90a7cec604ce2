// Package redisstore implements the document store on Redis. Documents
// are JSON strings under "doc:<path>" and every collection keeps the set of
// its ids under "idx:<collection path>".
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"stealthcompany.com/clinic/internal/docstore"
	"stealthcompany.com/clinic/internal/metrics"
)

const (
	backendName   = "redis"
	updateRetries = 3
)

// Config holds the Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Store is a docstore.Store on a Redis client.
type Store struct {
	client *redis.Client
}

var _ docstore.Store = (*Store)(nil)

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}

	log.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("Redis connection created successfully")
	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

func docKey(c docstore.Collection, id string) string {
	return "doc:" + c.Doc(id).Path()
}

func indexKey(c docstore.Collection) string {
	return "idx:" + c.Path()
}

func lockKey(key string) string {
	return "lock:" + key
}

func record(operation string, start time.Time, err error) {
	status := "success"
	switch {
	case errors.Is(err, redis.Nil):
		status = "miss"
	case err != nil:
		status = "error"
	}
	metrics.RecordStoreOperation(backendName, operation, status, time.Since(start))
}

// Get reads one document
func (s *Store) Get(ctx context.Context, c docstore.Collection, id string) (docstore.Snapshot, error) {
	start := time.Now()
	raw, err := s.client.Get(ctx, docKey(c, id)).Bytes()
	record("get", start, err)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return docstore.Snapshot{}, docstore.ErrNotFound
		}
		return docstore.Snapshot{}, fmt.Errorf("failed to get document %s: %w", docKey(c, id), err)
	}
	return docstore.Snapshot{ID: id, Data: raw}, nil
}

// Set writes the document and indexes its id
func (s *Store) Set(ctx context.Context, c docstore.Collection, id string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", docKey(c, id), err)
	}

	start := time.Now()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, docKey(c, id), body, 0)
		pipe.SAdd(ctx, indexKey(c), id)
		return nil
	})
	record("set", start, err)
	if err != nil {
		return fmt.Errorf("failed to set document %s: %w", docKey(c, id), err)
	}

	log.Debug().
		Str("doc_id", docKey(c, id)).
		Dur("duration", time.Since(start)).
		Msg("Successfully stored document")
	return nil
}

// Add stores the document under a random id
func (s *Store) Add(ctx context.Context, c docstore.Collection, doc interface{}) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, c, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

// Update merges fields into an existing document under WATCH so a
// concurrent writer forces a retry instead of a lost update.
func (s *Store) Update(ctx context.Context, c docstore.Collection, id string, fields map[string]interface{}) error {
	key := docKey(c, id)

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return docstore.ErrNotFound
			}
			return err
		}

		var doc map[string]interface{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("decode document %s: %w", key, err)
		}
		for field, value := range fields {
			doc[field] = value
		}
		body, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode document %s: %w", key, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, body, 0)
			return nil
		})
		return err
	}

	start := time.Now()
	var err error
	for i := 0; i < updateRetries; i++ {
		err = s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	record("update", start, err)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to update document %s: %w", key, err)
	}
	return nil
}

// Delete removes the document and its index entry
func (s *Store) Delete(ctx context.Context, c docstore.Collection, id string) error {
	start := time.Now()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, docKey(c, id))
		pipe.SRem(ctx, indexKey(c), id)
		return nil
	})
	record("delete", start, err)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", docKey(c, id), err)
	}
	return nil
}

// Stream returns every document of the collection ordered by id
func (s *Store) Stream(ctx context.Context, c docstore.Collection) ([]docstore.Snapshot, error) {
	start := time.Now()
	ids, err := s.client.SMembers(ctx, indexKey(c)).Result()
	if err != nil {
		record("scan", start, err)
		return nil, fmt.Errorf("failed to list collection %s: %w", c, err)
	}
	if len(ids) == 0 {
		record("scan", start, nil)
		return nil, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(c, id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	record("scan", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", c, err)
	}

	snapshots := make([]docstore.Snapshot, 0, len(ids))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// Index entry outlived its document.
			continue
		}
		snapshots = append(snapshots, docstore.Snapshot{ID: ids[i], Data: json.RawMessage(str)})
	}

	log.Debug().
		Str("collection", c.Path()).
		Int("resultCount", len(snapshots)).
		Dur("duration", time.Since(start)).
		Msg("Documents scanned successfully")
	return snapshots, nil
}

// Where scans the collection and keeps documents whose field equals value
func (s *Store) Where(ctx context.Context, c docstore.Collection, field string, value interface{}, limit int) ([]docstore.Snapshot, error) {
	if err := docstore.ValidateField(field); err != nil {
		return nil, err
	}
	want, err := normalize(value)
	if err != nil {
		return nil, fmt.Errorf("encode filter value: %w", err)
	}

	all, err := s.Stream(ctx, c)
	if err != nil {
		return nil, err
	}

	var matches []docstore.Snapshot
	for _, snap := range all {
		var doc map[string]interface{}
		if err := snap.DataTo(&doc); err != nil {
			log.Warn().Err(err).Str("doc_id", snap.ID).Msg("Failed to decode document")
			continue
		}
		got, ok := doc[field]
		if !ok || !reflect.DeepEqual(got, want) {
			continue
		}
		matches = append(matches, snap)
		if limit > 0 && len(matches) == limit {
			break
		}
	}
	return matches, nil
}

// normalize gives value the shape encoding/json decodes it back into.
func normalize(value interface{}) (interface{}, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out interface{}
	err = json.Unmarshal(raw, &out)
	return out, err
}

// unlockScript deletes the lock only while it still holds the caller's token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock acquires key for ttl and returns the holder token.
func (s *Store) Lock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	start := time.Now()
	ok, err := s.client.SetNX(ctx, lockKey(key), token, ttl).Result()
	record("lock", start, err)
	if err != nil {
		return "", fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return "", docstore.ErrLocked
	}
	return token, nil
}

// Unlock releases key if it is still held under token.
func (s *Store) Unlock(ctx context.Context, key, token string) error {
	start := time.Now()
	released, err := unlockScript.Run(ctx, s.client, []string{lockKey(key)}, token).Int()
	record("unlock", start, err)
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	if released == 0 {
		log.Warn().Str("lock", key).Msg("Lock expired before release")
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

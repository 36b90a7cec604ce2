package couchbase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"
	"stealthcompany.com/clinic/internal/docstore"
)

// LockCollection holds the lock documents.
const LockCollection = "locks"

// DatabaseLocker provides named locks backed by expiring documents. Insert
// fails when the key exists, which makes acquisition atomic.
type DatabaseLocker struct {
	conn  *ConnectionManager
	owner string
}

// NewDatabaseLocker creates a new database locker
func NewDatabaseLocker(conn *ConnectionManager, owner string) *DatabaseLocker {
	return &DatabaseLocker{conn: conn, owner: owner}
}

type lockDoc struct {
	Locked    bool      `json:"locked"`
	LockedAt  time.Time `json:"lockedAt"`
	LockedBy  string    `json:"lockedBy"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Lock acquires key for ttl. The token is the CAS of the inserted lock
// document.
func (l *DatabaseLocker) Lock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	doc := lockDoc{
		Locked:    true,
		LockedAt:  now,
		LockedBy:  l.owner,
		ExpiresAt: now.Add(ttl),
	}

	start := time.Now()
	res, err := l.conn.Collection(LockCollection).Insert(key, doc, &gocb.InsertOptions{
		Context: ctx,
		Expiry:  ttl,
	})
	record("lock", start, err)
	if err != nil {
		if errors.Is(err, gocb.ErrDocumentExists) {
			return "", docstore.ErrLocked
		}
		return "", fmt.Errorf("failed to create lock document %s: %w", key, err)
	}

	log.Debug().Str("lock", key).Msg("Lock acquired")
	return lockToken(res.Cas()), nil
}

// Unlock releases key if the lock document still carries the CAS from Lock.
// A lock that expired and was taken by another holder is left alone.
func (l *DatabaseLocker) Unlock(ctx context.Context, key, token string) error {
	cas, err := parseLockToken(token)
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}

	start := time.Now()
	_, err = l.conn.Collection(LockCollection).Remove(key, &gocb.RemoveOptions{
		Context: ctx,
		Cas:     cas,
	})
	record("unlock", start, err)
	switch {
	case err == nil:
		log.Debug().Str("lock", key).Msg("Lock released")
	case errors.Is(err, gocb.ErrDocumentNotFound), errors.Is(err, gocb.ErrCasMismatch):
		log.Warn().Str("lock", key).Msg("Lock expired before release")
	default:
		return fmt.Errorf("failed to remove lock document %s: %w", key, err)
	}
	return nil
}

func lockToken(cas gocb.Cas) string {
	return strconv.FormatUint(uint64(cas), 10)
}

func parseLockToken(token string) (gocb.Cas, error) {
	n, err := strconv.ParseUint(token, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid lock token %q", token)
	}
	return gocb.Cas(n), nil
}

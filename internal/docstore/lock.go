package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

const lockPollInterval = 25 * time.Millisecond

// WithLock runs fn while holding key. It polls for up to wait when the
// lock is held elsewhere and returns ErrLocked if it never frees up.
func WithLock(ctx context.Context, l Locker, key string, ttl, wait time.Duration, fn func() error) error {
	deadline := time.Now().Add(wait)
	var token string
	for {
		var err error
		token, err = l.Lock(ctx, key, ttl)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrLocked) {
			return err
		}
		if time.Now().After(deadline) {
			return ErrLocked
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}

	defer func() {
		// The lock expires on its own if this fails.
		if err := l.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			log.Warn().Err(err).Str("lock", key).Msg("Failed to release lock")
		}
	}()

	return fn()
}

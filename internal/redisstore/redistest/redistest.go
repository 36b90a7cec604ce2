// Package redistest runs the Redis document store against miniredis.
package redistest

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"stealthcompany.com/clinic/internal/redisstore"
)

// NewStore returns a Store on an in-process miniredis server that is
// shut down with the test.
func NewStore(t testing.TB) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return redisstore.NewWithClient(client), mr
}

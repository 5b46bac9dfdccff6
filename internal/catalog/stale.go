package catalog

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultStaleEntries = 256
	defaultStaleMaxAge  = time.Hour
	maxResponseBytes    = 4 << 20
	staleHeader         = "X-Catalog-Stale"
)

type staleKeyType struct{}

func withStaleKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, staleKeyType{}, key)
}

func staleKeyFrom(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(staleKeyType{}).(string)
	return key, ok
}

// newStaleCache keeps the last successful body per query URL, evicting the
// least recently used entry when full. Entries older than maxAge are never
// served.
func newStaleCache(size int, maxAge time.Duration) *expirable.LRU[string, []byte] {
	return expirable.NewLRU[string, []byte](size, nil, maxAge)
}

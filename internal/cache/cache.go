// Package cache is the page cache behind the global feed. Entries are
// immutable once written and die by TTL or an explicit Clear.
package cache

import (
	"context"
	"time"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration)
	Clear(ctx context.Context)
}

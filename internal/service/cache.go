package service

import (
	"context"
	"time"

	"blogapi/internal/cache"
)

// Cache is the read-through cache used by services.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) bool
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration)
	Delete(ctx context.Context, keys ...string) error
}

// orNoCache swaps a nil Cache for a nil *cache.Client, which never hits.
func orNoCache(c Cache) Cache {
	if c == nil {
		return (*cache.Client)(nil)
	}
	return c
}

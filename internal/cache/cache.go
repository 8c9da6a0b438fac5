// Package cache defines the explicit response cache for upstream API calls.
//
// Entries are keyed by (method, normalized arguments) and written once per
// key; backends are pluggable (redis, in-process LRU, or disabled).
package cache

import (
	"context"
	"time"

	"github.com/mapviz/hexpoi/internal/core/observability"
)

type Interface interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// GetOrFill is the read-through path: serve the cached value when present,
// otherwise call fetch and store its result. Backend errors on the read or
// write side degrade to a plain fetch; fetch errors always propagate.
func GetOrFill(ctx context.Context, c Interface, key string, ttl time.Duration, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	if c != nil {
		if v, ok, err := c.Get(ctx, key); err == nil && ok {
			observability.IncCacheHit()
			return v, nil
		}
		observability.IncCacheMiss()
	}

	v, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if c != nil {
		_ = c.Set(ctx, key, v, ttl)
	}
	return v, nil
}

// Nop is the disabled backend.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Del(context.Context, ...string) error                     { return nil }
func (Nop) Ping(context.Context) error                               { return nil }

package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/stackresolve/pkg/observability"
)

// Instrumented reports hits, misses and writes of a Cache to the
// registered observability hooks. The key type is the key's first
// colon-separated segment, e.g. "descriptor" or "metadata".
type Instrumented struct {
	Cache
}

// Instrument wraps c.
func Instrument(c Cache) Cache {
	return Instrumented{Cache: c}
}

func keyType(key string) string {
	if t, _, ok := strings.Cut(key, ":"); ok {
		return t
	}
	return "other"
}

func (c Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, hit, err
}

func (c Instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	}
	return err
}

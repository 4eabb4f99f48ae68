package config

import (
	"context"

	"github.com/matzehuels/stackresolve/pkg/cache"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
)

// Open creates the configured cache backend, instrumented with the
// observability cache hooks. An empty file directory selects
// cache.DefaultDir(); if that cannot be determined caching is disabled.
func (c CacheConfig) Open(ctx context.Context) (cache.Cache, error) {
	var (
		backend cache.Cache
		err     error
	)
	switch c.Backend {
	case CacheNone:
		return cache.NewNullCache(), nil
	case CacheMemory:
		backend, err = cache.NewMemoryCache(c.MemorySize)
	case CacheRedis:
		backend, err = cache.NewRedisCache(ctx, cache.RedisConfig{Addr: c.RedisAddr, DB: c.RedisDB})
	case CacheFile, "":
		dir := c.Dir
		if dir == "" {
			if dir, err = cache.DefaultDir(); err != nil {
				return cache.NewNullCache(), nil
			}
		}
		backend, err = cache.NewFileCache(dir)
	default:
		return nil, errs.New(errs.ErrCodeInvalidConfig, "unknown cache backend %q", c.Backend)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "open %s cache", c.Backend)
	}
	return cache.Instrument(backend), nil
}

package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/sciencemap-backend/internal/platform/cache"
	"github.com/yungbote/sciencemap-backend/internal/platform/logger"
	"github.com/yungbote/sciencemap-backend/internal/platform/redisdb"
)

var newRedisClient = redisdb.New

const (
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"
	CacheBackendNone   = "none"
)

type CacheProviderBootstrapErrorCode string

const (
	CacheProviderBootstrapErrorInvalidBackend CacheProviderBootstrapErrorCode = "invalid_backend"
	CacheProviderBootstrapErrorMissingAddr    CacheProviderBootstrapErrorCode = "missing_addr"
	CacheProviderBootstrapErrorConnectFailed  CacheProviderBootstrapErrorCode = "connect_failed"
)

type CacheProviderBootstrapError struct {
	Code    CacheProviderBootstrapErrorCode
	Backend string
	Addr    string
	Cause   error
}

func (e *CacheProviderBootstrapError) Error() string {
	if e == nil {
		return "cache bootstrap failed"
	}
	return fmt.Sprintf(
		"cache bootstrap failed (code=%s backend=%q addr=%q): %v",
		e.Code,
		e.Backend,
		e.Addr,
		e.Cause,
	)
}

func (e *CacheProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveCacheBackend picks the effective backend and whether the operator
// asked for it explicitly.
func resolveCacheBackend(cfg Config) (string, bool) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))
	if backend != "" {
		return backend, true
	}
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		return CacheBackendRedis, false
	}
	return CacheBackendMemory, false
}

// resolveCacheStore builds the cache store. An explicitly requested redis
// that cannot be reached fails startup; an implied one degrades to the
// in-process store. The returned client is nil unless redis is in use.
func resolveCacheStore(ctx context.Context, log *logger.Logger, cfg Config) (cache.Store, *goredis.Client, error) {
	backend, explicit := resolveCacheBackend(cfg)
	log.Info(
		"Selecting cache backend",
		"backend", backend,
		"explicit", explicit,
		"addr", cfg.Redis.Addr,
	)

	switch backend {
	case CacheBackendNone:
		return nil, nil, nil
	case CacheBackendMemory:
		return newMemoryCacheStore(cfg)
	case CacheBackendRedis:
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			err := &CacheProviderBootstrapError{
				Code:    CacheProviderBootstrapErrorMissingAddr,
				Backend: backend,
				Cause:   errors.New("REDIS_ADDR or REDIS_HOST is required for the redis cache backend"),
			}
			log.Error("Cache provider selection failed", "backend", backend, "error_code", err.Code, "error", err)
			return nil, nil, err
		}
		rdb, err := newRedisClient(ctx, cfg.Redis, log)
		if err != nil {
			classified := &CacheProviderBootstrapError{
				Code:    CacheProviderBootstrapErrorConnectFailed,
				Backend: backend,
				Addr:    cfg.Redis.Addr,
				Cause:   err,
			}
			if explicit {
				log.Error("Cache provider bootstrap failed", "backend", backend, "addr", cfg.Redis.Addr, "error_code", classified.Code, "error", classified)
				return nil, nil, classified
			}
			log.Warn("Redis unavailable, falling back to in-process cache", "addr", cfg.Redis.Addr, "error_code", classified.Code, "error", err)
			return newMemoryCacheStore(cfg)
		}
		return cache.NewRedisStore(rdb), rdb, nil
	default:
		err := &CacheProviderBootstrapError{
			Code:    CacheProviderBootstrapErrorInvalidBackend,
			Backend: backend,
			Cause:   fmt.Errorf("unsupported cache backend %q", backend),
		}
		log.Error("Cache provider selection failed", "backend", backend, "error_code", err.Code, "error", err)
		return nil, nil, err
	}
}

func newMemoryCacheStore(cfg Config) (cache.Store, *goredis.Client, error) {
	store, err := cache.NewMemoryStore(cfg.Cache.MemoryMaxBytes)
	if err != nil {
		return nil, nil, &CacheProviderBootstrapError{
			Code:    CacheProviderBootstrapErrorConnectFailed,
			Backend: CacheBackendMemory,
			Cause:   err,
		}
	}
	return store, nil, nil
}

func cacheProviderBootstrapErrorCode(err error) CacheProviderBootstrapErrorCode {
	var bootstrapErr *CacheProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return CacheProviderBootstrapErrorConnectFailed
}

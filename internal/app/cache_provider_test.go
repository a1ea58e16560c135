package app

import (
	"context"
	"errors"
	"testing"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/sciencemap-backend/internal/platform/cache"
	"github.com/yungbote/sciencemap-backend/internal/platform/logger"
	"github.com/yungbote/sciencemap-backend/internal/platform/redisdb"
)

func stubRedisClient(t *testing.T, err error) {
	t.Helper()
	orig := newRedisClient
	newRedisClient = func(context.Context, redisdb.Config, *logger.Logger) (*goredis.Client, error) {
		if err != nil {
			return nil, err
		}
		return goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"}), nil
	}
	t.Cleanup(func() { newRedisClient = orig })
}

func TestResolveCacheBackendAuto(t *testing.T) {
	cfg := DefaultConfig()
	if got, explicit := resolveCacheBackend(cfg); got != CacheBackendMemory || explicit {
		t.Fatalf("no redis addr: got=%q explicit=%v", got, explicit)
	}
	cfg.Redis.Addr = "redis:6379"
	if got, explicit := resolveCacheBackend(cfg); got != CacheBackendRedis || explicit {
		t.Fatalf("redis addr: got=%q explicit=%v", got, explicit)
	}
	cfg.Cache.Backend = " NONE "
	if got, explicit := resolveCacheBackend(cfg); got != CacheBackendNone || !explicit {
		t.Fatalf("explicit none: got=%q explicit=%v", got, explicit)
	}
}

func TestResolveCacheStoreInvalidBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Backend = "memcached"

	_, _, err := resolveCacheStore(context.Background(), logger.NewNop(), cfg)

	var got *CacheProviderBootstrapError
	if !errors.As(err, &got) {
		t.Fatalf("expected CacheProviderBootstrapError, got=%T", err)
	}
	if got.Code != CacheProviderBootstrapErrorInvalidBackend {
		t.Fatalf("code: want=%q got=%q", CacheProviderBootstrapErrorInvalidBackend, got.Code)
	}
}

func TestResolveCacheStoreExplicitRedisMissingAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Backend = CacheBackendRedis

	_, _, err := resolveCacheStore(context.Background(), logger.NewNop(), cfg)
	if code := cacheProviderBootstrapErrorCode(err); code != CacheProviderBootstrapErrorMissingAddr {
		t.Fatalf("code: want=%q got=%q", CacheProviderBootstrapErrorMissingAddr, code)
	}
}

func TestResolveCacheStoreExplicitRedisConnectFailed(t *testing.T) {
	stubRedisClient(t, errors.New("dial tcp: connection refused"))
	cfg := DefaultConfig()
	cfg.Cache.Backend = CacheBackendRedis
	cfg.Redis.Addr = "redis:6379"

	_, _, err := resolveCacheStore(context.Background(), logger.NewNop(), cfg)
	if code := cacheProviderBootstrapErrorCode(err); code != CacheProviderBootstrapErrorConnectFailed {
		t.Fatalf("code: want=%q got=%q", CacheProviderBootstrapErrorConnectFailed, code)
	}
}

func TestResolveCacheStoreImpliedRedisDegradesToMemory(t *testing.T) {
	stubRedisClient(t, errors.New("dial tcp: connection refused"))
	cfg := DefaultConfig()
	cfg.Redis.Addr = "redis:6379"

	store, rdb, err := resolveCacheStore(context.Background(), logger.NewNop(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rdb != nil {
		t.Fatalf("redis client should be nil after fallback")
	}
	if _, ok := store.(*cache.MemoryStore); !ok {
		t.Fatalf("expected memory store, got=%T", store)
	}
	_ = store.Close()
}

func TestResolveCacheStoreRedis(t *testing.T) {
	stubRedisClient(t, nil)
	cfg := DefaultConfig()
	cfg.Redis.Addr = "redis:6379"

	store, rdb, err := resolveCacheStore(context.Background(), logger.NewNop(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rdb == nil {
		t.Fatalf("expected redis client")
	}
	if _, ok := store.(*cache.RedisStore); !ok {
		t.Fatalf("expected redis store, got=%T", store)
	}
	_ = store.Close()
	_ = rdb.Close()
}

func TestResolveCacheStoreNone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Backend = CacheBackendNone
	store, rdb, err := resolveCacheStore(context.Background(), logger.NewNop(), cfg)
	if err != nil || store != nil || rdb != nil {
		t.Fatalf("none backend: store=%v rdb=%v err=%v", store, rdb, err)
	}
}

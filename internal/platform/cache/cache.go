package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/sciencemap-backend/internal/platform/logger"
)

const (
	ResultHit    = "hit"
	ResultMiss   = "miss"
	ResultError  = "error"
	ResultBypass = "bypass"
)

// Observer receives cache outcomes for metrics.
type Observer interface {
	ObserveCache(kind, result string)
	SetCacheBreakerState(name string, state int)
}

type Options struct {
	// Prefix namespaces every key, e.g. "sciencemap" -> "sciencemap:tree:...".
	Prefix string
	// OpTimeout bounds a single store call.
	OpTimeout time.Duration
	// BreakerTimeout is how long the breaker stays open before probing again.
	BreakerTimeout time.Duration
	// BreakerFailures is the consecutive failure count that opens the breaker.
	BreakerFailures uint32
	// ComputeTimeout bounds a computation shared by concurrent callers of one key.
	ComputeTimeout time.Duration
	Observer       Observer
}

// Cache is a best-effort read-through cache. Store failures of any kind are
// logged and degrade to direct computation; they are never returned.
type Cache struct {
	store          Store
	prefix         string
	opTimeout      time.Duration
	computeTimeout time.Duration
	breaker   *gobreaker.CircuitBreaker
	flight    singleflight.Group
	log       *logger.Logger
	observer  Observer
}

// New wraps store. A nil store yields a cache that always computes.
func New(store Store, log *logger.Logger, opts Options) *Cache {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 250 * time.Millisecond
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 30 * time.Second
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.ComputeTimeout <= 0 {
		opts.ComputeTimeout = 30 * time.Second
	}
	c := &Cache{
		store:          store,
		prefix:         opts.Prefix,
		opTimeout:      opts.OpTimeout,
		computeTimeout: opts.ComputeTimeout,
		log:       log.With("service", "ViewCache"),
		observer:  opts.Observer,
	}
	failures := opts.BreakerFailures
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "cache-store",
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("cache breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			if c.observer != nil {
				c.observer.SetCacheBreakerState(name, int(to))
			}
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation is not a store failure.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return c
}

func (c *Cache) Enabled() bool {
	return c != nil && c.store != nil
}

// State reports "disabled", or the breaker state ("closed", "open", "half-open").
func (c *Cache) State() string {
	if !c.Enabled() {
		return "disabled"
	}
	return c.breaker.State().String()
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.store.Close()
}

// GetOrCompute serves key from the cache when a decodable entry exists,
// otherwise runs compute and stores its JSON encoding for ttl. ttl <= 0
// bypasses the cache entirely. Errors from compute are returned as is and
// never cached.
func GetOrCompute[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	kind := kindOf(key)
	if !c.Enabled() || ttl <= 0 {
		c.observe(kind, ResultBypass)
		return compute(ctx)
	}

	full := c.fullKey(key)
	if raw, ok := c.get(ctx, kind, full); ok {
		var out T
		err := json.Unmarshal(raw, &out)
		if err == nil {
			c.observe(kind, ResultHit)
			return out, nil
		}
		c.log.Warn("cache entry undecodable, recomputing", "key", full, "error", err)
	}
	c.observe(kind, ResultMiss)

	// The computation is shared by every caller waiting on full, so it runs
	// detached from any one caller's cancellation; each caller still stops
	// waiting when its own ctx ends.
	ch := c.flight.DoChan(full, func() (any, error) {
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.computeTimeout)
		defer cancel()
		val, err := compute(sharedCtx)
		if err != nil {
			return nil, err
		}
		c.set(sharedCtx, kind, full, val, ttl)
		return val, nil
	})
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		out, _ := res.Val.(T)
		return out, nil
	}
}

func (c *Cache) fullKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

func (c *Cache) get(ctx context.Context, kind, key string) ([]byte, bool) {
	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	res, err := c.breaker.Execute(func() (interface{}, error) {
		raw, found, err := c.store.Get(opCtx, key)
		if err != nil || !found {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		c.observe(kind, ResultError)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.log.Debug("cache breaker open, computing directly", "key", key)
		} else {
			c.log.Warn("cache get failed, computing directly", "key", key, "error", err)
		}
		return nil, false
	}
	raw, _ := res.([]byte)
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

func (c *Cache) set(ctx context.Context, kind, key string, val any, ttl time.Duration) {
	raw, err := json.Marshal(val)
	if err != nil {
		c.log.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	// The write outlives a caller that disconnects right after compute.
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opTimeout)
	defer cancel()

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.store.Set(opCtx, key, raw, ttl)
	})
	if err != nil {
		c.observe(kind, ResultError)
		c.log.Warn("cache set failed", "key", key, "error", err)
	}
}

func (c *Cache) observe(kind, result string) {
	if c != nil && c.observer != nil {
		c.observer.ObserveCache(kind, result)
	}
}

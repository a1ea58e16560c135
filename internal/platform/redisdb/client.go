package redisdb

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/sciencemap-backend/internal/platform/envutil"
	"github.com/yungbote/sciencemap-backend/internal/platform/logger"
)

type Config struct {
	Addr        string `yaml:"addr"`
	Password    string `yaml:"password"`
	DB          int    `yaml:"db"`
	DialTimeout int    `yaml:"dial_timeout_seconds"`
}

// ApplyEnv overlays REDIS_* variables. REDIS_ADDR wins over REDIS_HOST/REDIS_PORT.
func (cfg *Config) ApplyEnv() {
	if addr := envutil.String("REDIS_ADDR", ""); addr != "" {
		cfg.Addr = addr
	} else if host := envutil.String("REDIS_HOST", ""); host != "" {
		cfg.Addr = net.JoinHostPort(host, strconv.Itoa(envutil.Int("REDIS_PORT", 6379)))
	}
	cfg.Password = envutil.String("REDIS_PASSWORD", cfg.Password)
	cfg.DB = envutil.Int("REDIS_DB", cfg.DB)
}

// New dials redis and verifies it with a PING. An unreachable server is an
// error here; callers decide whether to run without a cache.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*goredis.Client, error) {
	if log == nil {
		return nil, fmt.Errorf("redisdb: logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("redisdb: missing addr")
	}
	dial := time.Duration(cfg.DialTimeout) * time.Second
	if dial <= 0 {
		dial = 5 * time.Second
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dial,
	})

	if ctx == nil {
		ctx = context.Background()
	}
	pctx, cancel := context.WithTimeout(ctx, dial)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info("redis connected", "addr", addr, "db", cfg.DB)
	return rdb, nil
}

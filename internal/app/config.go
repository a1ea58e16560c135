package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/sciencemap-backend/internal/modules/graphview"
	"github.com/yungbote/sciencemap-backend/internal/observability"
	"github.com/yungbote/sciencemap-backend/internal/platform/envutil"
	"github.com/yungbote/sciencemap-backend/internal/platform/logger"
	"github.com/yungbote/sciencemap-backend/internal/platform/neo4jdb"
	"github.com/yungbote/sciencemap-backend/internal/platform/redisdb"
)

const defaultConfigPath = "config/config.yaml"

type Config struct {
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`

	Neo4j   neo4jdb.Config           `yaml:"neo4j"`
	Redis   redisdb.Config           `yaml:"redis"`
	Cache   CacheConfig              `yaml:"cache"`
	Views   graphview.Config         `yaml:"views"`
	HTTP    HTTPConfig               `yaml:"http"`
	Metrics bool                     `yaml:"metrics_enabled"`
	Otel    observability.OtelConfig `yaml:"otel"`
}

type CacheConfig struct {
	// Backend is "redis", "memory" or "none". Empty picks redis when an
	// address is configured and memory otherwise.
	Backend         string        `yaml:"backend"`
	KeyPrefix       string        `yaml:"key_prefix"`
	OpTimeout       time.Duration `yaml:"op_timeout"`
	MemoryMaxBytes  int64         `yaml:"memory_max_bytes"`
	BreakerFailures uint32        `yaml:"breaker_failures"`
	BreakerTimeout  time.Duration `yaml:"breaker_timeout"`
}

type HTTPConfig struct {
	CORSOrigins    []string `yaml:"cors_allow_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`
}

func DefaultConfig() Config {
	return Config{
		Port:            "8080",
		ShutdownTimeout: 10 * time.Second,
		RequestTimeout:  30 * time.Second,
		Neo4j:           neo4jdb.DefaultConfig(),
		Cache: CacheConfig{
			KeyPrefix:       "sciencemap",
			OpTimeout:       250 * time.Millisecond,
			MemoryMaxBytes:  64 << 20,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Views: graphview.DefaultConfig(),
		Otel: observability.OtelConfig{
			ServiceName: "sciencemap-backend",
			SampleRatio: 0.1,
		},
	}
}

// LoadConfig layers defaults, the optional YAML file and the environment.
// A missing file at the default path is fine; a missing file at an explicit
// SCIENCEMAP_CONFIG_PATH is not.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := DefaultConfig()

	path := envutil.String("SCIENCEMAP_CONFIG_PATH", "")
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (cfg *Config) applyEnv() {
	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.ShutdownTimeout = envutil.Millis("SHUTDOWN_TIMEOUT_MS", cfg.ShutdownTimeout)
	cfg.RequestTimeout = envutil.Millis("REQUEST_TIMEOUT_MS", cfg.RequestTimeout)

	cfg.Neo4j.ApplyEnv()
	cfg.Redis.ApplyEnv()

	cfg.Cache.Backend = strings.ToLower(envutil.String("CACHE_BACKEND", cfg.Cache.Backend))
	cfg.Cache.KeyPrefix = envutil.String("CACHE_KEY_PREFIX", cfg.Cache.KeyPrefix)
	cfg.Cache.OpTimeout = envutil.Millis("CACHE_OP_TIMEOUT_MS", cfg.Cache.OpTimeout)
	if v := envutil.Int("CACHE_MEMORY_MAX_BYTES", 0); v > 0 {
		cfg.Cache.MemoryMaxBytes = int64(v)
	}

	cfg.Views.DefaultRootID = envutil.String("DEFAULT_ROOT_ID", cfg.Views.DefaultRootID)

	cfg.HTTP.CORSOrigins = envutil.List("CORS_ALLOW_ORIGINS", cfg.HTTP.CORSOrigins)
	cfg.HTTP.RateLimitRPS = envutil.Float("RATE_LIMIT_RPS", cfg.HTTP.RateLimitRPS)
	cfg.HTTP.RateLimitBurst = envutil.Int("RATE_LIMIT_BURST", cfg.HTTP.RateLimitBurst)

	cfg.Metrics = envutil.Bool("METRICS_ENABLED", cfg.Metrics)

	cfg.Otel.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.Otel.ServiceName)
	cfg.Otel.ApplyEnv()
}

package neo4jdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/sciencemap-backend/internal/platform/envutil"
	"github.com/yungbote/sciencemap-backend/internal/platform/logger"
)

type Config struct {
	URI         string `yaml:"uri"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	Database    string `yaml:"database"`
	TimeoutSec  int    `yaml:"timeout_seconds"`
	MaxPoolSize int    `yaml:"max_pool_size"`
}

func DefaultConfig() Config {
	return Config{
		URI:         "bolt://localhost:7687",
		User:        "neo4j",
		Password:    "password",
		TimeoutSec:  10,
		MaxPoolSize: 50,
	}
}

// ApplyEnv overlays NEO4J_* variables onto cfg.
func (cfg *Config) ApplyEnv() {
	cfg.URI = envutil.String("NEO4J_URI", cfg.URI)
	cfg.User = envutil.String("NEO4J_USER", cfg.User)
	cfg.Password = envutil.String("NEO4J_PASSWORD", cfg.Password)
	cfg.Database = envutil.String("NEO4J_DATABASE", cfg.Database)
	if v := envutil.Int("NEO4J_TIMEOUT_SECONDS", 0); v > 0 {
		cfg.TimeoutSec = v
	}
	if v := envutil.Int("NEO4J_MAX_POOL_SIZE", 0); v > 0 {
		cfg.MaxPoolSize = v
	}
}

type Client struct {
	Driver   neo4j.DriverWithContext
	Database string
	log      *logger.Logger
}

func New(ctx context.Context, cfg Config, log *logger.Logger) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("neo4jdb: logger required")
	}
	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return nil, fmt.Errorf("neo4jdb: uri required")
	}
	user := strings.TrimSpace(cfg.User)
	if user == "" {
		user = "neo4j"
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxPool := cfg.MaxPoolSize
	if maxPool <= 0 {
		maxPool = 50
	}

	auth := neo4j.BasicAuth(user, cfg.Password, "")
	driver, err := neo4j.NewDriverWithContext(uri, auth, func(c *neo4j.Config) {
		c.MaxConnectionPoolSize = maxPool
		c.SocketConnectTimeout = timeout
	})
	if err != nil {
		return nil, fmt.Errorf("neo4jdb: init driver: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	vctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(vctx); err != nil {
		_ = driver.Close(vctx)
		return nil, fmt.Errorf("neo4jdb: verify connectivity: %w", err)
	}

	log.Info("neo4j connected", "uri", uri, "database", cfg.Database, "max_pool", maxPool)
	return &Client{
		Driver:   driver,
		Database: strings.TrimSpace(cfg.Database),
		log:      log.With("client", "Neo4jDB"),
	}, nil
}

// ReadSession opens a read-only session against the configured database.
// Callers own the session and must Close it.
func (c *Client) ReadSession(ctx context.Context) neo4j.SessionWithContext {
	return c.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: c.Database,
	})
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.Driver == nil {
		return fmt.Errorf("neo4jdb: not initialized")
	}
	return c.Driver.VerifyConnectivity(ctx)
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.Driver == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := c.Driver.Close(ctx)
	c.Driver = nil
	return err
}

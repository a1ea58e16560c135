package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/sciencemap-backend/internal/modules/graphview"
	"github.com/yungbote/sciencemap-backend/internal/platform/logger"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SCIENCEMAP_CONFIG_PATH", "")
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig(logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4j.URI)
	assert.Equal(t, "sciencemap", cfg.Cache.KeyPrefix)
	assert.Equal(t, graphview.DefaultRootID, cfg.Views.DefaultRootID)
	assert.Equal(t, 20*time.Second, cfg.Views.TTL.Viewport)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
port: "9000"
neo4j:
  uri: bolt://graph:7687
cache:
  backend: memory
  op_timeout: 100ms
views:
  default_root_id: 物理学
  ttl:
    tree: 2m
http:
  cors_allow_origins: ["https://map.example.org"]
`)
	t.Setenv("SCIENCEMAP_CONFIG_PATH", path)
	t.Setenv("PORT", "9100")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("CACHE_KEY_PREFIX", "smap")

	cfg, err := LoadConfig(logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "bolt://graph:7687", cfg.Neo4j.URI)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 100*time.Millisecond, cfg.Cache.OpTimeout)
	assert.Equal(t, "smap", cfg.Cache.KeyPrefix)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, "物理学", cfg.Views.DefaultRootID)
	assert.Equal(t, 2*time.Minute, cfg.Views.TTL.Tree)
	assert.Equal(t, 30*time.Second, cfg.Views.TTL.Search)
	assert.Equal(t, []string{"https://map.example.org"}, cfg.HTTP.CORSOrigins)
}

func TestLoadConfigExplicitPathMustExist(t *testing.T) {
	t.Setenv("SCIENCEMAP_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := LoadConfig(logger.NewNop())
	assert.Error(t, err)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	t.Setenv("SCIENCEMAP_CONFIG_PATH", writeConfig(t, "port: [unterminated"))
	_, err := LoadConfig(logger.NewNop())
	assert.Error(t, err)
}

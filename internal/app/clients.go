package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/sciencemap-backend/internal/platform/logger"
	"github.com/yungbote/sciencemap-backend/internal/platform/neo4jdb"
)

type Clients struct {
	Neo4j *neo4jdb.Client
	// Redis is nil unless the cache runs on redis.
	Redis *goredis.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	n4j, err := neo4jdb.New(ctx, cfg.Neo4j, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init neo4j: %w", err)
	}
	return Clients{Neo4j: n4j}, nil
}

// Close releases redis first, then the graph driver.
func (c *Clients) Close(ctx context.Context) {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
		c.Redis = nil
	}
	if c.Neo4j != nil {
		_ = c.Neo4j.Close(ctx)
		c.Neo4j = nil
	}
}

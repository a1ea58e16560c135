package app

import (
	"context"
	"fmt"

	"github.com/yungbote/sciencemap-backend/internal/data/graph"
	"github.com/yungbote/sciencemap-backend/internal/observability"
	"github.com/yungbote/sciencemap-backend/internal/platform/cache"
	"github.com/yungbote/sciencemap-backend/internal/platform/logger"
)

type Repos struct {
	Graph graph.Store
	Cache *cache.Cache
}

func wireRepos(ctx context.Context, log *logger.Logger, cfg Config, clients *Clients, metrics *observability.Metrics) (Repos, error) {
	log.Info("Wiring repos...")

	var queryObserver graph.QueryObserver
	var cacheObserver cache.Observer
	if metrics != nil {
		queryObserver = metrics
		cacheObserver = metrics
	}

	store, err := graph.NewNeo4jStore(clients.Neo4j, log, queryObserver)
	if err != nil {
		return Repos{}, fmt.Errorf("init graph store: %w", err)
	}

	cacheStore, rdb, err := resolveCacheStore(ctx, log, cfg)
	if err != nil {
		return Repos{}, err
	}
	clients.Redis = rdb

	viewCache := cache.New(cacheStore, log, cache.Options{
		Prefix:          cfg.Cache.KeyPrefix,
		OpTimeout:       cfg.Cache.OpTimeout,
		BreakerTimeout:  cfg.Cache.BreakerTimeout,
		BreakerFailures: cfg.Cache.BreakerFailures,
		ComputeTimeout:  cfg.RequestTimeout,
		Observer:        cacheObserver,
	})
	return Repos{Graph: store, Cache: viewCache}, nil
}

package graphview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/sciencemap-backend/internal/data/graph"
	"github.com/yungbote/sciencemap-backend/internal/domain"
	"github.com/yungbote/sciencemap-backend/internal/normalization"
	"github.com/yungbote/sciencemap-backend/internal/platform/cache"
	"github.com/yungbote/sciencemap-backend/internal/platform/logger"
)

const (
	DefaultRootID = "科学"
	DefaultLang   = "zh-CN"

	ViewNetwork = "network"
	ViewTree    = "tree"
)

// TTLs per cached view. A zero TTL leaves that view uncached.
type TTLs struct {
	Search    time.Duration `yaml:"search"`
	Entity    time.Duration `yaml:"entity"`
	Neighbors time.Duration `yaml:"neighbors"`
	Viewport  time.Duration `yaml:"viewport"`
	Tree      time.Duration `yaml:"tree"`
	Timeline  time.Duration `yaml:"timeline"`
	PathQuery time.Duration `yaml:"path_query"`
}

func DefaultTTLs() TTLs {
	return TTLs{
		Search:    30 * time.Second,
		Entity:    60 * time.Second,
		Neighbors: 30 * time.Second,
		Viewport:  20 * time.Second,
		Tree:      60 * time.Second,
		Timeline:  60 * time.Second,
		PathQuery: 30 * time.Second,
	}
}

type Config struct {
	// DefaultRootID centers the viewport and roots the tree when the caller
	// names nothing, and is the tree's fallback root.
	DefaultRootID string `yaml:"default_root_id"`
	TTL           TTLs   `yaml:"ttl"`
}

func DefaultConfig() Config {
	return Config{DefaultRootID: DefaultRootID, TTL: DefaultTTLs()}
}

type SearchParams struct {
	Query string
	Lang  string
	Limit *int
}

type NeighborsParams struct {
	ID        string
	Direction string
	RelTypes  []string
	Limit     *int
}

type ViewportParams struct {
	View     string
	CenterID string
	MaxHops  *int
	Limit    *int
}

type TreeParams struct {
	Root  string
	Depth *int
}

type TimelineParams struct {
	YearFrom *int
	YearTo   *int
	Limit    *int
}

type PathParams struct {
	StartID         string
	EndID           string
	Strategy        string
	AllowedRelTypes []string
	YearFrom        *int
	YearTo          *int
	MaxHops         *int
}

// Service computes every graph view. Cached views go through the
// read-through cache keyed by their effective parameters.
type Service struct {
	store graph.Store
	cache *cache.Cache
	log   *logger.Logger
	cfg   Config
}

func NewService(store graph.Store, c *cache.Cache, log *logger.Logger, cfg Config) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("graphview: store required")
	}
	if log == nil {
		log = logger.NewNop()
	}
	cfg.DefaultRootID = strings.TrimSpace(cfg.DefaultRootID)
	if cfg.DefaultRootID == "" {
		cfg.DefaultRootID = DefaultRootID
	}
	return &Service{
		store: store,
		cache: c,
		log:   log.With("service", "GraphViewService"),
		cfg:   cfg,
	}, nil
}

func (s *Service) DefaultRoot() string { return s.cfg.DefaultRootID }

func (s *Service) ListEntities(ctx context.Context, limit *int) ([]domain.Entity, error) {
	records, err := s.store.Run(ctx, graph.ListEntities(graph.ListLimit.Limit(limit)))
	if err != nil {
		return nil, fmt.Errorf("list view: %w", err)
	}
	return assembleEntities(records, "n"), nil
}

// Search returns an empty list for a blank query without touching the store
// or the cache.
func (s *Service) Search(ctx context.Context, p SearchParams) ([]domain.SearchItem, error) {
	q := strings.TrimSpace(p.Query)
	if q == "" {
		return []domain.SearchItem{}, nil
	}
	lang := labelLang(p.Lang)
	limit := graph.SearchLimit.Limit(p.Limit)

	key := cache.Key("search", lang, normalization.ParseInputString(q), limit)
	return cache.GetOrCompute(ctx, s.cache, key, s.cfg.TTL.Search, func(ctx context.Context) ([]domain.SearchItem, error) {
		records, err := s.store.Run(ctx, graph.Search(q, limit))
		if err != nil {
			return nil, fmt.Errorf("search view: %w", err)
		}
		entities := assembleEntities(records, "n")
		items := make([]domain.SearchItem, 0, len(entities))
		for _, e := range entities {
			items = append(items, e.SearchItem(lang))
		}
		return items, nil
	})
}

// Entity looks an entity up by id or name.
func (s *Service) Entity(ctx context.Context, id string) (*domain.Entity, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalid("entity id is required")
	}
	key := cache.Key("entity", id)
	return cache.GetOrCompute(ctx, s.cache, key, s.cfg.TTL.Entity, func(ctx context.Context) (*domain.Entity, error) {
		records, err := s.store.Run(ctx, graph.EntityByKey(id))
		if err != nil {
			return nil, fmt.Errorf("entity view: %w", err)
		}
		n, ok := firstNode(records, "n")
		if !ok {
			return nil, notFound("entity_not_found", "entity %q", id)
		}
		e := normalization.Entity(n)
		return &e, nil
	})
}

func (s *Service) Neighbors(ctx context.Context, p NeighborsParams) (*domain.GraphPayload, error) {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return nil, invalid("entity id is required")
	}
	dir := graph.ParseDirection(p.Direction)
	relTypes := normalization.TypeSet(p.RelTypes)
	limit := graph.NeighborLimit.Limit(p.Limit)

	key := cache.Key("neighbors", id, dir, relTypes, limit)
	return cache.GetOrCompute(ctx, s.cache, key, s.cfg.TTL.Neighbors, func(ctx context.Context) (*domain.GraphPayload, error) {
		records, err := s.store.Run(ctx, graph.Neighbors(id, dir, relTypes, limit))
		if err != nil {
			return nil, fmt.Errorf("neighbors view: %w", err)
		}
		return assembleTriples(records, "n", "r", "m"), nil
	})
}

func (s *Service) Graph(ctx context.Context, limit *int) (*domain.GraphPayload, error) {
	records, err := s.store.Run(ctx, graph.FullGraph(graph.GraphLimit.Limit(limit)))
	if err != nil {
		return nil, fmt.Errorf("graph view: %w", err)
	}
	return assembleTriples(records, "n", "r", "m"), nil
}

// Viewport returns the center plus every direct edge among entities within
// maxHops of it. An unknown center yields an empty payload.
func (s *Service) Viewport(ctx context.Context, p ViewportParams) (*domain.GraphPayload, error) {
	view := ViewNetwork
	hopBound := graph.ViewportNetworkHops
	if strings.EqualFold(strings.TrimSpace(p.View), ViewTree) {
		view = ViewTree
		hopBound = graph.ViewportTreeHops
	}
	center := strings.TrimSpace(p.CenterID)
	if center == "" {
		center = s.cfg.DefaultRootID
	}
	hops := hopBound.Clamp(p.MaxHops)
	limit := graph.ViewportLimit.Limit(p.Limit)

	key := cache.Key("viewport", view, center, hops, limit)
	return cache.GetOrCompute(ctx, s.cache, key, s.cfg.TTL.Viewport, func(ctx context.Context) (*domain.GraphPayload, error) {
		candidates, err := s.store.Run(ctx, graph.ViewportCandidates(center, hops))
		if err != nil {
			return nil, fmt.Errorf("viewport view: %w", err)
		}
		if len(candidates) == 0 {
			return domain.EmptyGraph(), nil
		}
		c, ok := recordNode(candidates[0], "c")
		if !ok {
			return domain.EmptyGraph(), nil
		}
		b := newPayloadBuilder()
		b.addNode(c)

		ids := recordStrings(candidates[0], "ids")
		if len(ids) < 2 {
			return b.payload(), nil
		}
		records, err := s.store.Run(ctx, graph.ViewportEdges(ids, limit))
		if err != nil {
			return nil, fmt.Errorf("viewport view: %w", err)
		}
		addTriples(b, records, "a", "rel", "b")
		return b.payload(), nil
	})
}

// Tree materializes the INCLUDES hierarchy under root. When root matches
// nothing the default root is tried before reporting not found.
func (s *Service) Tree(ctx context.Context, p TreeParams) (*domain.TreeNode, error) {
	root := strings.TrimSpace(p.Root)
	if root == "" {
		root = s.cfg.DefaultRootID
	}
	depth := graph.TreeDepth.Clamp(p.Depth)

	key := cache.Key("tree", root, depth)
	return cache.GetOrCompute(ctx, s.cache, key, s.cfg.TTL.Tree, func(ctx context.Context) (*domain.TreeNode, error) {
		records, err := s.store.Run(ctx, graph.Tree(root, depth))
		if err != nil {
			return nil, fmt.Errorf("tree view: %w", err)
		}
		if tree, ok := assembleTree(records, root, s.cfg.DefaultRootID, depth); ok {
			return tree, nil
		}
		if root != s.cfg.DefaultRootID {
			s.log.Debug("tree root not found, falling back to default root", "root", root, "default_root", s.cfg.DefaultRootID)
			records, err = s.store.Run(ctx, graph.Tree(s.cfg.DefaultRootID, depth))
			if err != nil {
				return nil, fmt.Errorf("tree view: %w", err)
			}
			if tree, ok := assembleTree(records, s.cfg.DefaultRootID, s.cfg.DefaultRootID, depth); ok {
				return tree, nil
			}
		}
		return nil, notFound("root_not_found", "tree root %q", root)
	})
}

// Timeline lists dated entities in ascending year order.
func (s *Service) Timeline(ctx context.Context, p TimelineParams) ([]domain.Entity, error) {
	from := graph.DefaultYearFrom
	if p.YearFrom != nil {
		from = *p.YearFrom
	}
	to := graph.DefaultYearTo()
	if p.YearTo != nil {
		to = *p.YearTo
	}
	limit := graph.TimelineLimit.Limit(p.Limit)

	key := cache.Key("timeline", from, to, limit)
	return cache.GetOrCompute(ctx, s.cache, key, s.cfg.TTL.Timeline, func(ctx context.Context) ([]domain.Entity, error) {
		records, err := s.store.Run(ctx, graph.Timeline(from, to, limit))
		if err != nil {
			return nil, fmt.Errorf("timeline view: %w", err)
		}
		return assembleEntities(records, "n"), nil
	})
}

// Path is the unconstrained, uncached shortest path with the default hop
// ceiling.
func (s *Service) Path(ctx context.Context, startID, endID string) (*domain.GraphPayload, error) {
	startID, endID = strings.TrimSpace(startID), strings.TrimSpace(endID)
	if startID == "" || endID == "" {
		return nil, invalid("start and end are required")
	}
	return s.resolvePath(ctx, graph.PathSpec{
		StartID:  startID,
		EndID:    endID,
		Strategy: graph.StrategyShortest,
		MaxHops:  graph.PathHops.Default,
	})
}

// PathQuery resolves a constrained shortest path.
func (s *Service) PathQuery(ctx context.Context, p PathParams) (*domain.GraphPayload, error) {
	spec, err := pathSpec(p)
	if err != nil {
		return nil, err
	}
	key := cache.Key("path", spec.Strategy, spec.StartID, spec.EndID, spec.AllowedRelTypes, spec.YearFrom, spec.YearTo, spec.MaxHops)
	return cache.GetOrCompute(ctx, s.cache, key, s.cfg.TTL.PathQuery, func(ctx context.Context) (*domain.GraphPayload, error) {
		return s.resolvePath(ctx, spec)
	})
}

// pathSpec validates p and fills defaults. Year bounds only apply to the
// time-constrained strategy, so they are dropped otherwise.
func pathSpec(p PathParams) (graph.PathSpec, error) {
	spec := graph.PathSpec{
		StartID:         strings.TrimSpace(p.StartID),
		EndID:           strings.TrimSpace(p.EndID),
		Strategy:        graph.ParseStrategy(p.Strategy),
		AllowedRelTypes: normalization.TypeSet(p.AllowedRelTypes),
		MaxHops:         graph.PathHops.Clamp(p.MaxHops),
	}
	if spec.StartID == "" || spec.EndID == "" {
		return graph.PathSpec{}, invalid("startId and endId are required")
	}
	if spec.Strategy == graph.StrategyTimeConstrained {
		spec.YearFrom = p.YearFrom
		spec.YearTo = p.YearTo
	}
	return spec, nil
}

func labelLang(lang string) string {
	if strings.TrimSpace(lang) == "en" {
		return "en"
	}
	return DefaultLang
}

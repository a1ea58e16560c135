package graphview

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/yungbote/sciencemap-backend/internal/data/graph"
	"github.com/yungbote/sciencemap-backend/internal/domain"
	"github.com/yungbote/sciencemap-backend/internal/normalization"
	"github.com/yungbote/sciencemap-backend/internal/platform/ctxutil"
)

// pathConstraint is the per-edge predicate a returned path must satisfy.
// The same predicate is compiled into the Cypher WHERE clause, so years are
// compared raw the way the store compares them.
type pathConstraint struct {
	allowed   map[string]struct{}
	years     bool
	from      *int
	to        *int
	startYear normalization.Year
	endYear   normalization.Year
}

func newPathConstraint(spec graph.PathSpec, start, end dbtype.Node) pathConstraint {
	c := pathConstraint{startYear: normalization.NodeYear(start), endYear: normalization.NodeYear(end)}
	if len(spec.AllowedRelTypes) > 0 {
		c.allowed = make(map[string]struct{}, len(spec.AllowedRelTypes))
		for _, t := range spec.AllowedRelTypes {
			c.allowed[t] = struct{}{}
		}
	}
	if spec.Strategy == graph.StrategyTimeConstrained {
		c.years = true
		c.from = spec.YearFrom
		c.to = spec.YearTo
	}
	return c
}

// effectiveYear is the first present of the edge's year, the start's, the end's.
func (c pathConstraint) effectiveYear(rel dbtype.Relationship) normalization.Year {
	if y := normalization.EdgeYear(rel); y.Present {
		return y
	}
	if c.startYear.Present {
		return c.startYear
	}
	return c.endYear
}

func (c pathConstraint) edgeOK(rel dbtype.Relationship) bool {
	if c.allowed != nil {
		if _, ok := c.allowed[rel.Type]; !ok {
			return false
		}
	}
	if !c.years || (c.from == nil && c.to == nil) {
		return true
	}
	// A missing or non-numeric year never satisfies a bound.
	y := c.effectiveYear(rel)
	if !y.Numeric {
		return false
	}
	if c.from != nil && y.Value < float64(*c.from) {
		return false
	}
	if c.to != nil && y.Value > float64(*c.to) {
		return false
	}
	return true
}

func (c pathConstraint) accepts(p dbtype.Path) bool {
	for _, rel := range p.Relationships {
		if !c.edgeOK(rel) {
			return false
		}
	}
	return true
}

// resolvePath runs one constrained shortest-path search. A missing endpoint
// or an empty result is reported as no path, never as an empty payload.
func (s *Service) resolvePath(ctx context.Context, spec graph.PathSpec) (*domain.GraphPayload, error) {
	if spec.StartID == spec.EndID {
		return s.trivialPath(ctx, spec)
	}

	records, err := s.store.Run(ctx, graph.ShortestPath(spec))
	if err != nil {
		return nil, fmt.Errorf("path view: %w", err)
	}
	if len(records) == 0 {
		return nil, noPath(spec.StartID, spec.EndID)
	}
	rec := records[0]
	start, hasStart := recordNode(rec, "src")
	end, hasEnd := recordNode(rec, "dst")
	p, ok := recordPath(rec, "p")
	if !ok {
		// Different keys naming one entity, e.g. its id and its name.
		if hasStart && hasEnd && sameNode(start, end) {
			b := newPayloadBuilder()
			b.addNode(start)
			return b.payload(), nil
		}
		return nil, noPath(spec.StartID, spec.EndID)
	}
	if !hasStart {
		start = p.Nodes[0]
	}
	if !hasEnd {
		end = p.Nodes[len(p.Nodes)-1]
	}

	constraint := newPathConstraint(spec, start, end)
	if !constraint.accepts(p) {
		s.log.Warn("store returned a path violating its constraints",
			append(ctxutil.LogFields(ctx), "start", spec.StartID, "end", spec.EndID, "strategy", string(spec.Strategy))...,
		)
		return nil, noPath(spec.StartID, spec.EndID)
	}

	b := newPayloadBuilder()
	b.addNode(start)
	b.addNode(end)
	for i, rel := range p.Relationships {
		b.addEdge(rel, p.Nodes[i], p.Nodes[i+1])
	}
	return b.payload(), nil
}

func sameNode(a, b dbtype.Node) bool {
	if a.ElementId != "" || b.ElementId != "" {
		return a.ElementId == b.ElementId
	}
	id := normalization.Entity(a).ID
	return id != "" && id == normalization.Entity(b).ID
}

// trivialPath answers start == end with the single matched entity.
func (s *Service) trivialPath(ctx context.Context, spec graph.PathSpec) (*domain.GraphPayload, error) {
	records, err := s.store.Run(ctx, graph.EntityByKey(spec.StartID))
	if err != nil {
		return nil, fmt.Errorf("path view: %w", err)
	}
	n, ok := firstNode(records, "n")
	if !ok {
		return nil, noPath(spec.StartID, spec.EndID)
	}
	b := newPayloadBuilder()
	b.addNode(n)
	return b.payload(), nil
}

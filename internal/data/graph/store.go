package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/sciencemap-backend/internal/platform/ctxutil"
	"github.com/yungbote/sciencemap-backend/internal/platform/logger"
	"github.com/yungbote/sciencemap-backend/internal/platform/neo4jdb"
)

// Store executes read-only traversals and returns the raw records.
type Store interface {
	Run(ctx context.Context, q Query) ([]*neo4j.Record, error)
}

// QueryObserver receives the outcome of every traversal.
type QueryObserver interface {
	ObserveGraphQuery(name, status string, dur time.Duration)
}

type Neo4jStore struct {
	client   *neo4jdb.Client
	log      *logger.Logger
	tracer   trace.Tracer
	observer QueryObserver
}

func NewNeo4jStore(client *neo4jdb.Client, log *logger.Logger, observer QueryObserver) (*Neo4jStore, error) {
	if client == nil || client.Driver == nil {
		return nil, fmt.Errorf("graph store: neo4j client required")
	}
	if log == nil {
		return nil, fmt.Errorf("graph store: logger required")
	}
	return &Neo4jStore{
		client:   client,
		log:      log.With("service", "GraphStore"),
		tracer:   otel.Tracer("sciencemap/graph"),
		observer: observer,
	}, nil
}

// Run opens a scoped read session per traversal; the session is closed on
// every return path.
func (s *Neo4jStore) Run(ctx context.Context, q Query) ([]*neo4j.Record, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := s.tracer.Start(ctx, "neo4j."+q.Name, trace.WithAttributes(
		attribute.String("db.system", "neo4j"),
		attribute.String("db.operation", q.Name),
	))
	defer span.End()

	start := time.Now()
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, q.Cypher, q.Params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	dur := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		s.observe(q.Name, "error", dur)
		fields := append([]interface{}{"query", q.Name, "duration_ms", dur.Milliseconds(), "error", err}, ctxutil.LogFields(ctx)...)
		s.log.Error("graph query failed", fields...)
		return nil, fmt.Errorf("graph %s: %w", q.Name, err)
	}

	records, _ := out.([]*neo4j.Record)
	span.SetAttributes(attribute.Int("db.records", len(records)))
	s.observe(q.Name, "ok", dur)
	s.log.Debug("graph query", "query", q.Name, "records", len(records), "duration_ms", dur.Milliseconds())
	return records, nil
}

func (s *Neo4jStore) observe(name, status string, dur time.Duration) {
	if s.observer != nil {
		s.observer.ObserveGraphQuery(name, status, dur)
	}
}

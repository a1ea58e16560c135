package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/yungbote/sciencemap-backend/internal/app"
	"github.com/yungbote/sciencemap-backend/internal/data/graph"
	"github.com/yungbote/sciencemap-backend/internal/modules/graphview"
	"github.com/yungbote/sciencemap-backend/internal/platform/logger"
	"github.com/yungbote/sciencemap-backend/internal/platform/neo4jdb"
	"github.com/yungbote/sciencemap-backend/internal/platform/shutdown"
)

// session holds what every subcommand needs. Views are computed directly
// against the graph store; the CLI never reads or writes the view cache.
type session struct {
	log    *logger.Logger
	client *neo4jdb.Client
	views  *graphview.Service
	out    io.Writer
}

func openSession(ctx context.Context, verbose bool, out io.Writer) (*session, error) {
	log := logger.NewNop()
	if verbose {
		l, err := logger.New("development")
		if err != nil {
			return nil, err
		}
		log = l
	}
	cfg, err := app.LoadConfig(log)
	if err != nil {
		return nil, err
	}
	client, err := neo4jdb.New(ctx, cfg.Neo4j, log)
	if err != nil {
		return nil, fmt.Errorf("connect neo4j: %w", err)
	}
	store, err := graph.NewNeo4jStore(client, log, nil)
	if err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	views, err := graphview.NewService(store, nil, log, cfg.Views)
	if err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	return &session{log: log, client: client, views: views, out: out}, nil
}

func (s *session) close(ctx context.Context) {
	_ = s.client.Close(ctx)
	s.log.Sync()
}

func (s *session) print(v any) error {
	enc := json.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func main() {
	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

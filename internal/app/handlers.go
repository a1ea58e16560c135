package app

import (
	httpH "github.com/yungbote/sciencemap-backend/internal/http/handlers"
	"github.com/yungbote/sciencemap-backend/internal/platform/logger"
)

type Handlers struct {
	Health *httpH.HealthHandler
	Graph  *httpH.GraphHandler
}

func wireHandlers(log *logger.Logger, clients Clients, repos Repos, services Services) Handlers {
	log.Info("Wiring handlers...")
	var pinger httpH.Pinger
	if clients.Neo4j != nil {
		pinger = clients.Neo4j
	}
	return Handlers{
		Health: httpH.NewHealthHandler(pinger, repos.Cache),
		Graph:  httpH.NewGraphHandler(services.GraphView),
	}
}

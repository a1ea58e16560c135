package app

import (
	"fmt"

	"github.com/yungbote/sciencemap-backend/internal/modules/graphview"
	"github.com/yungbote/sciencemap-backend/internal/platform/logger"
)

type Services struct {
	GraphView *graphview.Service
}

func wireServices(log *logger.Logger, cfg Config, repos Repos) (Services, error) {
	log.Info("Wiring services...")
	views, err := graphview.NewService(repos.Graph, repos.Cache, log, cfg.Views)
	if err != nil {
		return Services{}, fmt.Errorf("init graph view service: %w", err)
	}
	return Services{GraphView: views}, nil
}

package app

import (
	"github.com/yungbote/sciencemap-backend/internal/http"
	"github.com/yungbote/sciencemap-backend/internal/observability"
	"github.com/yungbote/sciencemap-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *http.Server {
	tracing := ""
	if cfg.Otel.Enabled {
		tracing = cfg.Otel.ServiceName
	}
	return http.NewServer(http.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		TracingService: tracing,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		RateLimitRPS:   cfg.HTTP.RateLimitRPS,
		RateLimitBurst: cfg.HTTP.RateLimitBurst,
		RequestTimeout: cfg.RequestTimeout,
		GraphHandler:   handlers.Graph,
		HealthHandler:  handlers.Health,
	})
}

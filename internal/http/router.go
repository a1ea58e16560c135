package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/sciencemap-backend/internal/http/handlers"
	httpMW "github.com/yungbote/sciencemap-backend/internal/http/middleware"
	"github.com/yungbote/sciencemap-backend/internal/observability"
	"github.com/yungbote/sciencemap-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	// TracingService names the otelgin spans; empty disables HTTP tracing.
	TracingService string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration

	GraphHandler  *httpH.GraphHandler
	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingService != "" {
		r.Use(otelgin.Middleware(cfg.TracingService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.AttachRequestContext(cfg.RequestTimeout))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/", cfg.HealthHandler.Banner)
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	api.Use(httpMW.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	if cfg.GraphHandler != nil {
		api.GET("/theories", cfg.GraphHandler.ListEntities)
		api.GET("/search", cfg.GraphHandler.Search)

		api.GET("/entity/:id", cfg.GraphHandler.GetEntity)
		api.GET("/entity/:id/neighbors", cfg.GraphHandler.Neighbors)

		api.GET("/graph", cfg.GraphHandler.Graph)
		api.GET("/graph/viewport", cfg.GraphHandler.Viewport)
		api.GET("/tree", cfg.GraphHandler.Tree)
		api.GET("/timeline", cfg.GraphHandler.Timeline)

		api.GET("/path", cfg.GraphHandler.Path)
		api.POST("/path/query", cfg.GraphHandler.PathQuery)
	}

	return r
}

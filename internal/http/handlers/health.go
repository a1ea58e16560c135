package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const Banner = "Map of Science Backend Running"

// Pinger reports whether the graph store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CacheStater reports the cache's availability; it never fails readiness.
type CacheStater interface {
	State() string
}

type HealthHandler struct {
	graph Pinger
	cache CacheStater
}

func NewHealthHandler(graph Pinger, cache CacheStater) *HealthHandler {
	return &HealthHandler{graph: graph, cache: cache}
}

func (h *HealthHandler) Banner(c *gin.Context) {
	c.String(http.StatusOK, Banner)
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /readyz
func (h *HealthHandler) Ready(c *gin.Context) {
	body := gin.H{"status": "ok", "neo4j": "ok", "cache": "disabled"}
	if h.cache != nil {
		body["cache"] = h.cache.State()
	}
	status := http.StatusOK
	if h.graph != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.graph.Ping(ctx); err != nil {
			_ = c.Error(err)
			status = http.StatusServiceUnavailable
			body["status"] = "unavailable"
			body["neo4j"] = "unreachable"
		}
	}
	c.JSON(status, body)
}

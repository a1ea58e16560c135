package observability

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/sciencemap-backend/internal/platform/envutil"
	"github.com/yungbote/sciencemap-backend/internal/platform/logger"
)

type Metrics struct {
	registry *prometheus.Registry

	apiRequests  *prometheus.CounterVec
	apiLatency   *prometheus.HistogramVec
	apiInflight  prometheus.Gauge
	cacheResults *prometheus.CounterVec
	cacheBreaker *prometheus.GaugeVec
	graphQueries *prometheus.HistogramVec
	redisUp      prometheus.Gauge
	redisPing    prometheus.Gauge

	sloCompliance *prometheus.GaugeVec
	sloBudget     *prometheus.GaugeVec
	sloBurn       *prometheus.GaugeVec

	slo          sloCounters
	latencyBound time.Duration
}

// New registers every collector on a private registry so tests and
// multiple app instances do not collide on the global one.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sciencemap_api_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sciencemap_api_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sciencemap_api_inflight_requests",
			Help: "HTTP requests currently being served.",
		}),
		cacheResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sciencemap_cache_results_total",
			Help: "View cache outcomes by view kind (hit, miss, error, bypass).",
		}, []string{"kind", "result"}),
		cacheBreaker: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sciencemap_cache_breaker_state",
			Help: "Cache store circuit breaker state (0 closed, 1 half-open, 2 open).",
		}, []string{"breaker"}),
		graphQueries: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sciencemap_graph_query_duration_seconds",
			Help:    "Graph store traversal latency by query and status.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"query", "status"}),
		redisUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sciencemap_redis_up",
			Help: "1 when the cache redis answered the last ping.",
		}),
		redisPing: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sciencemap_redis_ping_seconds",
			Help: "Latency of the last redis ping.",
		}),
		sloCompliance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sciencemap_slo_compliance_ratio",
			Help: "Good events over total events in the SLO window.",
		}, []string{"slo", "window"}),
		sloBudget: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sciencemap_slo_error_budget_remaining",
			Help: "Fraction of the error budget left in the SLO window.",
		}, []string{"slo", "window"}),
		sloBurn: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sciencemap_slo_burn_rate",
			Help: "Error budget burn rate in the SLO window.",
		}, []string{"slo", "window"}),
		latencyBound: envutil.Millis("SLO_API_LATENCY_THRESHOLD_MS", 500*time.Millisecond),
	}
	reg.MustRegister(
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.cacheResults, m.cacheBreaker, m.graphQueries,
		m.redisUp, m.redisPing,
		m.sloCompliance, m.sloBudget, m.sloBurn,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())

	if !strings.HasPrefix(route, "/api/") {
		return
	}
	m.slo.apiTotal.Add(1)
	if strings.HasPrefix(status, "5") {
		m.slo.apiError.Add(1)
	}
	if dur <= m.latencyBound {
		m.slo.apiGood.Add(1)
	}
}

func (m *Metrics) ApiInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) ApiInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

func (m *Metrics) ObserveCache(kind, result string) {
	if m == nil {
		return
	}
	m.cacheResults.WithLabelValues(kind, result).Inc()
	switch result {
	case "bypass":
	case "error":
		m.slo.cacheTotal.Add(1)
		m.slo.cacheError.Add(1)
	default:
		m.slo.cacheTotal.Add(1)
	}
}

func (m *Metrics) SetCacheBreakerState(name string, state int) {
	if m != nil {
		m.cacheBreaker.WithLabelValues(name).Set(float64(state))
	}
}

func (m *Metrics) ObserveGraphQuery(name, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.graphQueries.WithLabelValues(name, status).Observe(dur.Seconds())
	m.slo.graphTotal.Add(1)
	if status != "ok" {
		m.slo.graphError.Add(1)
	}
}

// StartRedisCollector pings the cache redis every interval until ctx ends.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb goredis.UniversalClient, interval time.Duration) {
	if m == nil || rdb == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			m.pingRedis(ctx, log, rdb)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func (m *Metrics) pingRedis(ctx context.Context, log *logger.Logger, rdb goredis.UniversalClient) {
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	start := time.Now()
	if err := rdb.Ping(pctx).Err(); err != nil {
		m.redisUp.Set(0)
		if log != nil && ctx.Err() == nil {
			log.Debug("redis ping failed", "error", err)
		}
		return
	}
	m.redisUp.Set(1)
	m.redisPing.Set(time.Since(start).Seconds())
}

package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yungbote/sciencemap-backend/internal/platform/envutil"
	"github.com/yungbote/sciencemap-backend/internal/platform/logger"
)

// sloCounters are monotonic totals the evaluator samples each tick.
type sloCounters struct {
	apiTotal   atomic.Uint64
	apiError   atomic.Uint64
	apiGood    atomic.Uint64
	graphTotal atomic.Uint64
	graphError atomic.Uint64
	cacheTotal atomic.Uint64
	cacheError atomic.Uint64
}

type rollingSum struct {
	values []float64
	idx    int
	total  float64
}

func newRollingSum(size int) *rollingSum {
	if size < 1 {
		size = 1
	}
	return &rollingSum{values: make([]float64, size)}
}

func (r *rollingSum) add(v float64) {
	r.total += v - r.values[r.idx]
	r.values[r.idx] = v
	r.idx++
	if r.idx >= len(r.values) {
		r.idx = 0
	}
}

// series tracks one counter as a windowed sum of per-tick deltas.
type series struct {
	sum  *rollingSum
	prev float64
}

func (s *series) sample(current float64) float64 {
	s.sum.add(delta(current, s.prev))
	s.prev = current
	return s.sum.total
}

type SLOConfig struct {
	Interval          time.Duration
	Window            time.Duration
	APIAvailTarget    float64
	APILatencyTarget  float64
	GraphQueryTarget  float64
	CacheHealthTarget float64
	AlertWebhook      string
	AlertOwner        string
	AlertRunbook      string
	AlertMinInterval  time.Duration
	AlertBurnWarn     float64
	AlertBurnCrit     float64
}

func SLOConfigFromEnv() SLOConfig {
	return SLOConfig{
		Interval:          envutil.Millis("SLO_EVAL_INTERVAL_MS", time.Minute),
		Window:            time.Duration(envutil.Float("SLO_WINDOW_HOURS", 720) * float64(time.Hour)),
		APIAvailTarget:    clamp01(envutil.Float("SLO_API_AVAIL_TARGET", 0.995)),
		APILatencyTarget:  clamp01(envutil.Float("SLO_API_LATENCY_TARGET", 0.95)),
		GraphQueryTarget:  clamp01(envutil.Float("SLO_GRAPH_QUERY_TARGET", 0.99)),
		CacheHealthTarget: clamp01(envutil.Float("SLO_CACHE_HEALTH_TARGET", 0.95)),
		AlertWebhook:      strings.TrimSpace(envutil.String("SLO_ALERT_WEBHOOK_URL", "")),
		AlertOwner:        strings.TrimSpace(envutil.String("SLO_ALERT_OWNER", "")),
		AlertRunbook:      strings.TrimSpace(envutil.String("SLO_ALERT_RUNBOOK_URL", "")),
		AlertMinInterval:  envutil.Millis("SLO_ALERT_MIN_INTERVAL_MS", 15*time.Minute),
		AlertBurnWarn:     envutil.Float("SLO_ALERT_BURN_RATE_WARN", 2),
		AlertBurnCrit:     envutil.Float("SLO_ALERT_BURN_RATE_CRIT", 10),
	}
}

type SLOEvaluator struct {
	metrics     *Metrics
	log         *logger.Logger
	cfg         SLOConfig
	windowLabel string
	client      *http.Client

	apiTotal   series
	apiError   series
	apiGood    series
	graphTotal series
	graphError series
	cacheTotal series
	cacheError series

	alertMu    sync.Mutex
	lastAlerts map[string]time.Time
}

func SLOEnabled() bool {
	return envutil.Bool("SLO_ENABLED", false)
}

// StartSLOEvaluator samples the service counters every interval until ctx
// ends and publishes compliance, budget and burn rate per objective.
func (m *Metrics) StartSLOEvaluator(ctx context.Context, log *logger.Logger, cfg SLOConfig) {
	if m == nil {
		return
	}
	eval := newSLOEvaluator(m, log, cfg)
	go eval.run(ctx)
	if log != nil {
		log.Info("SLO evaluator started", "window", eval.windowLabel, "interval", eval.cfg.Interval.String())
	}
}

func newSLOEvaluator(m *Metrics, log *logger.Logger, cfg SLOConfig) *SLOEvaluator {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Window < time.Hour {
		cfg.Window = 24 * time.Hour
	}
	size := int(cfg.Window / cfg.Interval)
	newSeries := func() series { return series{sum: newRollingSum(size)} }
	return &SLOEvaluator{
		metrics:     m,
		log:         log,
		cfg:         cfg,
		windowLabel: formatWindowLabel(cfg.Window),
		client:      &http.Client{Timeout: 5 * time.Second},
		apiTotal:    newSeries(),
		apiError:    newSeries(),
		apiGood:     newSeries(),
		graphTotal:  newSeries(),
		graphError:  newSeries(),
		cacheTotal:  newSeries(),
		cacheError:  newSeries(),
		lastAlerts:  map[string]time.Time{},
	}
}

func (e *SLOEvaluator) run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.evaluate(ctx)
		}
	}
}

func (e *SLOEvaluator) evaluate(ctx context.Context) {
	c := &e.metrics.slo
	apiTotal := e.apiTotal.sample(float64(c.apiTotal.Load()))
	apiError := e.apiError.sample(float64(c.apiError.Load()))
	apiGood := e.apiGood.sample(float64(c.apiGood.Load()))
	graphTotal := e.graphTotal.sample(float64(c.graphTotal.Load()))
	graphError := e.graphError.sample(float64(c.graphError.Load()))
	cacheTotal := e.cacheTotal.sample(float64(c.cacheTotal.Load()))
	cacheError := e.cacheError.sample(float64(c.cacheError.Load()))

	e.evalSLO(ctx, "api_availability", apiTotal, apiError, e.cfg.APIAvailTarget)
	e.evalSLO(ctx, "api_latency", apiTotal, apiTotal-apiGood, e.cfg.APILatencyTarget)
	e.evalSLO(ctx, "graph_query_success", graphTotal, graphError, e.cfg.GraphQueryTarget)
	e.evalSLO(ctx, "cache_health", cacheTotal, cacheError, e.cfg.CacheHealthTarget)
}

func (e *SLOEvaluator) evalSLO(ctx context.Context, name string, total, bad, target float64) {
	if total <= 0 {
		e.metrics.sloCompliance.WithLabelValues(name, e.windowLabel).Set(1)
		e.metrics.sloBudget.WithLabelValues(name, e.windowLabel).Set(1)
		e.metrics.sloBurn.WithLabelValues(name, e.windowLabel).Set(0)
		return
	}
	sli := clamp01(1 - bad/total)
	burn := 0.0
	if target < 1 {
		burn = (1 - sli) / (1 - target)
	}
	budget := clamp01(1 - burn)
	e.metrics.sloCompliance.WithLabelValues(name, e.windowLabel).Set(sli)
	e.metrics.sloBudget.WithLabelValues(name, e.windowLabel).Set(budget)
	e.metrics.sloBurn.WithLabelValues(name, e.windowLabel).Set(burn)

	if e.cfg.AlertWebhook == "" || e.cfg.AlertOwner == "" {
		return
	}
	severity := ""
	if burn >= e.cfg.AlertBurnCrit {
		severity = "critical"
	} else if burn >= e.cfg.AlertBurnWarn {
		severity = "warning"
	}
	if severity == "" {
		return
	}
	key := name + ":" + severity
	e.alertMu.Lock()
	last := e.lastAlerts[key]
	if !last.IsZero() && time.Since(last) < e.cfg.AlertMinInterval {
		e.alertMu.Unlock()
		return
	}
	e.lastAlerts[key] = time.Now()
	e.alertMu.Unlock()
	e.sendAlert(ctx, name, severity, sli, target, burn, budget)
}

func (e *SLOEvaluator) sendAlert(ctx context.Context, name, severity string, sli, target, burn, budget float64) {
	payload := map[string]any{
		"title":                  "SLO burn rate alert",
		"service":                "sciencemap-backend",
		"severity":               severity,
		"owner":                  e.cfg.AlertOwner,
		"slo":                    name,
		"window":                 e.windowLabel,
		"sli":                    sli,
		"target":                 target,
		"burn_rate":              burn,
		"error_budget_remaining": budget,
		"runbook":                e.cfg.AlertRunbook,
		"timestamp":              time.Now().UTC().Format(time.RFC3339),
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.AlertWebhook, bytes.NewReader(body))
	if err != nil {
		if e.log != nil {
			e.log.Warn("slo alert request build failed", "error", err, "slo", name)
		}
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.client.Do(req)
	if err != nil {
		if e.log != nil {
			e.log.Warn("slo alert post failed", "error", err, "slo", name)
		}
		return
	}
	_ = resp.Body.Close()
	if e.log != nil {
		e.log.Info("slo alert sent", "slo", name, "severity", severity, "status", resp.StatusCode)
	}
}

// delta treats a counter that went backwards as reset.
func delta(current, prev float64) float64 {
	if current < prev {
		return current
	}
	return current - prev
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func formatWindowLabel(window time.Duration) string {
	hours := int(window.Hours())
	if hours >= 24 && hours%24 == 0 {
		return strconv.Itoa(hours/24) + "d"
	}
	if hours >= 1 {
		return strconv.Itoa(hours) + "h"
	}
	return strconv.Itoa(int(window.Minutes())) + "m"
}

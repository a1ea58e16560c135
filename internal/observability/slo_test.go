package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/sciencemap-backend/internal/platform/logger"
)

func TestRollingSumEvictsOldestSample(t *testing.T) {
	r := newRollingSum(3)
	for _, v := range []float64{1, 2, 3, 4} {
		r.add(v)
	}
	assert.Equal(t, float64(9), r.total)
}

func TestDeltaTreatsDecreaseAsReset(t *testing.T) {
	assert.Equal(t, float64(5), delta(15, 10))
	assert.Equal(t, float64(3), delta(3, 10))
}

func TestFormatWindowLabel(t *testing.T) {
	assert.Equal(t, "30d", formatWindowLabel(720*time.Hour))
	assert.Equal(t, "36h", formatWindowLabel(36*time.Hour))
	assert.Equal(t, "45m", formatWindowLabel(45*time.Minute))
}

func TestObserversFeedSLOCounters(t *testing.T) {
	m := New()
	m.latencyBound = 100 * time.Millisecond

	m.ObserveAPI("GET", "/api/tree", "200", 10*time.Millisecond)
	m.ObserveAPI("GET", "/api/tree", "500", 10*time.Millisecond)
	m.ObserveAPI("GET", "/api/search", "200", time.Second)
	m.ObserveAPI("GET", "/metrics", "200", time.Millisecond)
	m.ObserveGraphQuery("tree", "ok", time.Millisecond)
	m.ObserveGraphQuery("tree", "error", time.Millisecond)
	m.ObserveCache("tree", "hit")
	m.ObserveCache("tree", "error")
	m.ObserveCache("tree", "bypass")

	assert.Equal(t, uint64(3), m.slo.apiTotal.Load())
	assert.Equal(t, uint64(1), m.slo.apiError.Load())
	assert.Equal(t, uint64(2), m.slo.apiGood.Load())
	assert.Equal(t, uint64(2), m.slo.graphTotal.Load())
	assert.Equal(t, uint64(1), m.slo.graphError.Load())
	assert.Equal(t, uint64(2), m.slo.cacheTotal.Load())
	assert.Equal(t, uint64(1), m.slo.cacheError.Load())
}

func TestEvaluatePublishesComplianceAndBurn(t *testing.T) {
	m := New()
	for i := 0; i < 100; i++ {
		status := "200"
		if i < 2 {
			status = "503"
		}
		m.ObserveAPI("GET", "/api/graph", status, time.Millisecond)
	}
	e := newSLOEvaluator(m, logger.NewNop(), SLOConfig{
		Interval:       time.Minute,
		Window:         24 * time.Hour,
		APIAvailTarget: 0.99,
	})
	e.evaluate(context.Background())

	assert.InDelta(t, 0.98, testutil.ToFloat64(m.sloCompliance.WithLabelValues("api_availability", "1d")), 1e-9)
	assert.InDelta(t, 2.0, testutil.ToFloat64(m.sloBurn.WithLabelValues("api_availability", "1d")), 1e-9)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.sloBudget.WithLabelValues("api_availability", "1d")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.sloCompliance.WithLabelValues("graph_query_success", "1d")))
}

func TestEvaluateAlertsOncePerInterval(t *testing.T) {
	alerts := make(chan map[string]any, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		alerts <- body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	m := New()
	m.ObserveGraphQuery("tree", "error", time.Millisecond)
	e := newSLOEvaluator(m, logger.NewNop(), SLOConfig{
		Interval:         time.Minute,
		Window:           24 * time.Hour,
		GraphQueryTarget: 0.99,
		AlertWebhook:     srv.URL,
		AlertOwner:       "graph-team",
		AlertMinInterval: time.Hour,
		AlertBurnWarn:    2,
		AlertBurnCrit:    10,
	})
	e.evaluate(context.Background())
	e.evaluate(context.Background())

	require.Len(t, alerts, 1)
	last := <-alerts
	assert.Equal(t, "graph_query_success", last["slo"])
	assert.Equal(t, "critical", last["severity"])
}

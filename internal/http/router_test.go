package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/sciencemap-backend/internal/http/handlers"
	"github.com/yungbote/sciencemap-backend/internal/observability"
)

func TestRouterServesBannerHealthAndMetrics(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	r := NewRouter(RouterConfig{
		Metrics:       observability.New(),
		HealthHandler: httpH.NewHealthHandler(nil, nil),
	})

	cases := []struct {
		path string
		want string
	}{
		{"/", httpH.Banner},
		{"/healthcheck", "ok"},
		{"/metrics", "sciencemap_api_requests_total"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", tc.path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), tc.want) {
			t.Fatalf("%s: body %q does not contain %q", tc.path, rec.Body.String(), tc.want)
		}
		if rec.Header().Get("X-Request-Id") == "" {
			t.Fatalf("%s: missing request id header", tc.path)
		}
	}
}

func TestRouterWithoutGraphHandlerHasNoAPIRoutes(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	r := NewRouter(RouterConfig{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tree", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got=%d want=404", rec.Code)
	}
}

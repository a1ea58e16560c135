package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/sciencemap-backend/internal/domain"
	"github.com/yungbote/sciencemap-backend/internal/http/response"
	"github.com/yungbote/sciencemap-backend/internal/modules/graphview"
	"github.com/yungbote/sciencemap-backend/internal/platform/apierr"
)

type fakeViews struct {
	search    graphview.SearchParams
	neighbors graphview.NeighborsParams
	viewport  graphview.ViewportParams
	path      graphview.PathParams
	err       error
}

func (f *fakeViews) ListEntities(context.Context, *int) ([]domain.Entity, error) {
	return []domain.Entity{{ID: "a", Name: "a"}}, f.err
}

func (f *fakeViews) Search(_ context.Context, p graphview.SearchParams) ([]domain.SearchItem, error) {
	f.search = p
	return []domain.SearchItem{}, f.err
}

func (f *fakeViews) Entity(_ context.Context, id string) (*domain.Entity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Entity{ID: id, Name: id}, nil
}

func (f *fakeViews) Neighbors(_ context.Context, p graphview.NeighborsParams) (*domain.GraphPayload, error) {
	f.neighbors = p
	return domain.EmptyGraph(), f.err
}

func (f *fakeViews) Graph(context.Context, *int) (*domain.GraphPayload, error) {
	return domain.EmptyGraph(), f.err
}

func (f *fakeViews) Viewport(_ context.Context, p graphview.ViewportParams) (*domain.GraphPayload, error) {
	f.viewport = p
	return domain.EmptyGraph(), f.err
}

func (f *fakeViews) Tree(_ context.Context, p graphview.TreeParams) (*domain.TreeNode, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.TreeNode{Entity: domain.Entity{ID: p.Root}, Children: []*domain.TreeNode{}}, nil
}

func (f *fakeViews) Timeline(context.Context, graphview.TimelineParams) ([]domain.Entity, error) {
	return []domain.Entity{}, f.err
}

func (f *fakeViews) Path(context.Context, string, string) (*domain.GraphPayload, error) {
	return domain.EmptyGraph(), f.err
}

func (f *fakeViews) PathQuery(_ context.Context, p graphview.PathParams) (*domain.GraphPayload, error) {
	f.path = p
	return domain.EmptyGraph(), f.err
}

func newTestRouter(views GraphViews) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewGraphHandler(views)
	r := gin.New()
	r.GET("/api/search", h.Search)
	r.GET("/api/entity/:id", h.GetEntity)
	r.GET("/api/entity/:id/neighbors", h.Neighbors)
	r.GET("/api/graph/viewport", h.Viewport)
	r.GET("/api/tree", h.Tree)
	r.POST("/api/path/query", h.PathQuery)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSearchParsesQueryAndDefaults(t *testing.T) {
	t.Parallel()
	views := &fakeViews{}
	rec := do(newTestRouter(views), http.MethodGet, "/api/search?q=quantum&limit=abc", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("body: got=%s want=[]", rec.Body.String())
	}
	if views.search.Query != "quantum" || views.search.Lang != graphview.DefaultLang {
		t.Fatalf("unexpected params: %+v", views.search)
	}
	if views.search.Limit != nil {
		t.Fatalf("unparseable limit should fall back to default, got %d", *views.search.Limit)
	}
}

func TestNeighborsRelTypesList(t *testing.T) {
	t.Parallel()
	views := &fakeViews{}
	rec := do(newTestRouter(views), http.MethodGet, "/api/entity/%E7%89%A9%E7%90%86/neighbors?direction=out&relTypes=INCLUDES,%20RELATED_TO&limit=7", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d", rec.Code)
	}
	p := views.neighbors
	if p.ID != "物理" || p.Direction != "out" {
		t.Fatalf("unexpected params: %+v", p)
	}
	if len(p.RelTypes) != 2 || p.RelTypes[0] != "INCLUDES" || p.RelTypes[1] != "RELATED_TO" {
		t.Fatalf("unexpected rel types: %v", p.RelTypes)
	}
	if p.Limit == nil || *p.Limit != 7 {
		t.Fatalf("unexpected limit: %v", p.Limit)
	}
}

func TestViewportDefaults(t *testing.T) {
	t.Parallel()
	views := &fakeViews{}
	do(newTestRouter(views), http.MethodGet, "/api/graph/viewport?maxHops=4", "")
	if views.viewport.View != graphview.ViewNetwork || views.viewport.CenterID != "" {
		t.Fatalf("unexpected params: %+v", views.viewport)
	}
	if views.viewport.MaxHops == nil || *views.viewport.MaxHops != 4 {
		t.Fatalf("unexpected max hops: %v", views.viewport.MaxHops)
	}
}

func TestEntityErrorMapping(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", apierr.NotFound("entity_not_found", graphview.ErrNotFound), http.StatusNotFound, "entity_not_found"},
		{"invalid", apierr.BadRequest("invalid_request", graphview.ErrInvalidArgument), http.StatusBadRequest, "invalid_request"},
		{"store failure", errors.New("graph entity: connection reset"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := do(newTestRouter(&fakeViews{err: tc.err}), http.MethodGet, "/api/entity/x", "")
			if rec.Code != tc.status {
				t.Fatalf("status: got=%d want=%d", rec.Code, tc.status)
			}
			var env response.ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Code != tc.code {
				t.Fatalf("code: got=%q want=%q", env.Error.Code, tc.code)
			}
			if strings.Contains(env.Error.Message, "connection reset") {
				t.Fatalf("internal error leaked: %q", env.Error.Message)
			}
		})
	}
}

func TestTreeReturnsNestedNode(t *testing.T) {
	t.Parallel()
	rec := do(newTestRouter(&fakeViews{}), http.MethodGet, "/api/tree?root=phys&depth=0", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d", rec.Code)
	}
	var node map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &node); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if node["id"] != "phys" {
		t.Fatalf("unexpected root: %v", node["id"])
	}
	if children, ok := node["children"].([]any); !ok || len(children) != 0 {
		t.Fatalf("children should be an empty array, got %v", node["children"])
	}
}

func TestPathQueryBody(t *testing.T) {
	t.Parallel()
	views := &fakeViews{}
	body := `{"startId":"a","endId":"b","strategy":"time_constrained","allowedRelTypes":["INCLUDES"],"yearRange":{"from":1900,"to":"1950"},"maxHops":"5"}`
	rec := do(newTestRouter(views), http.MethodPost, "/api/path/query", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	p := views.path
	if p.StartID != "a" || p.EndID != "b" || p.Strategy != "time_constrained" {
		t.Fatalf("unexpected params: %+v", p)
	}
	if p.YearFrom == nil || *p.YearFrom != 1900 || p.YearTo == nil || *p.YearTo != 1950 {
		t.Fatalf("unexpected year range: %v %v", p.YearFrom, p.YearTo)
	}
	if p.MaxHops == nil || *p.MaxHops != 5 {
		t.Fatalf("unexpected max hops: %v", p.MaxHops)
	}
}

func TestPathQueryOutOfRangeNumbersAreUnset(t *testing.T) {
	t.Parallel()
	cases := []string{
		`{"startId":"a","endId":"b","yearRange":{"from":1e300,"to":"-1e300"},"maxHops":1e19}`,
		`{"startId":"a","endId":"b","yearRange":{"from":"NaN","to":"Infinity"},"maxHops":"-Inf"}`,
		`{"startId":"a","endId":"b","yearRange":{"from":99999999999999999999,"to":null},"maxHops":"abc"}`,
	}
	for _, body := range cases {
		views := &fakeViews{}
		rec := do(newTestRouter(views), http.MethodPost, "/api/path/query", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
		}
		p := views.path
		if p.YearFrom != nil || p.YearTo != nil || p.MaxHops != nil {
			t.Fatalf("%s: expected unset values, got from=%v to=%v hops=%v", body, p.YearFrom, p.YearTo, p.MaxHops)
		}
	}
}

func TestPathQueryFractionalNumbersTruncate(t *testing.T) {
	t.Parallel()
	views := &fakeViews{}
	body := `{"startId":"a","endId":"b","yearRange":{"from":1.9e3,"to":"1950.7"},"maxHops":4.2}`
	rec := do(newTestRouter(views), http.MethodPost, "/api/path/query", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	p := views.path
	if p.YearFrom == nil || *p.YearFrom != 1900 || p.YearTo == nil || *p.YearTo != 1950 || p.MaxHops == nil || *p.MaxHops != 4 {
		t.Fatalf("unexpected values: from=%v to=%v hops=%v", p.YearFrom, p.YearTo, p.MaxHops)
	}
}

func TestPathQueryRejectsMalformedBody(t *testing.T) {
	t.Parallel()
	rec := do(newTestRouter(&fakeViews{}), http.MethodPost, "/api/path/query", `{"startId":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got=%d want=400", rec.Code)
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubCache string

func (s stubCache) State() string { return string(s) }

func TestReadyReportsGraphStore(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		ping   error
		status int
	}{
		{"reachable", nil, http.StatusOK},
		{"unreachable", errors.New("dial tcp: refused"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h := NewHealthHandler(stubPinger{err: tc.ping}, stubCache("open"))
			r := gin.New()
			r.GET("/readyz", h.Ready)
			rec := do(r, http.MethodGet, "/readyz", "")
			if rec.Code != tc.status {
				t.Fatalf("status: got=%d want=%d", rec.Code, tc.status)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["cache"] != "open" {
				t.Fatalf("cache state: got=%q", body["cache"])
			}
		})
	}
}

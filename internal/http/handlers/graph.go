package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/sciencemap-backend/internal/domain"
	"github.com/yungbote/sciencemap-backend/internal/http/response"
	"github.com/yungbote/sciencemap-backend/internal/modules/graphview"
)

// GraphViews is the read API the graph handler serves.
type GraphViews interface {
	ListEntities(ctx context.Context, limit *int) ([]domain.Entity, error)
	Search(ctx context.Context, p graphview.SearchParams) ([]domain.SearchItem, error)
	Entity(ctx context.Context, id string) (*domain.Entity, error)
	Neighbors(ctx context.Context, p graphview.NeighborsParams) (*domain.GraphPayload, error)
	Graph(ctx context.Context, limit *int) (*domain.GraphPayload, error)
	Viewport(ctx context.Context, p graphview.ViewportParams) (*domain.GraphPayload, error)
	Tree(ctx context.Context, p graphview.TreeParams) (*domain.TreeNode, error)
	Timeline(ctx context.Context, p graphview.TimelineParams) ([]domain.Entity, error)
	Path(ctx context.Context, startID, endID string) (*domain.GraphPayload, error)
	PathQuery(ctx context.Context, p graphview.PathParams) (*domain.GraphPayload, error)
}

type GraphHandler struct {
	views GraphViews
}

func NewGraphHandler(views GraphViews) *GraphHandler {
	return &GraphHandler{views: views}
}

// GET /api/theories
func (h *GraphHandler) ListEntities(c *gin.Context) {
	items, err := h.views.ListEntities(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, items)
}

// GET /api/search
func (h *GraphHandler) Search(c *gin.Context) {
	items, err := h.views.Search(c.Request.Context(), graphview.SearchParams{
		Query: c.Query("q"),
		Lang:  c.DefaultQuery("lang", graphview.DefaultLang),
		Limit: queryInt(c, "limit"),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, items)
}

// GET /api/entity/:id
func (h *GraphHandler) GetEntity(c *gin.Context) {
	e, err := h.views.Entity(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, e)
}

// GET /api/entity/:id/neighbors
func (h *GraphHandler) Neighbors(c *gin.Context) {
	p, err := h.views.Neighbors(c.Request.Context(), graphview.NeighborsParams{
		ID:        c.Param("id"),
		Direction: c.DefaultQuery("direction", "both"),
		RelTypes:  queryList(c, "relTypes"),
		Limit:     queryInt(c, "limit"),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, p)
}

// GET /api/graph
func (h *GraphHandler) Graph(c *gin.Context) {
	p, err := h.views.Graph(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, p)
}

// GET /api/graph/viewport
func (h *GraphHandler) Viewport(c *gin.Context) {
	p, err := h.views.Viewport(c.Request.Context(), graphview.ViewportParams{
		View:     c.DefaultQuery("view", graphview.ViewNetwork),
		CenterID: c.Query("centerId"),
		MaxHops:  queryInt(c, "maxHops"),
		Limit:    queryInt(c, "limit"),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, p)
}

// GET /api/tree
func (h *GraphHandler) Tree(c *gin.Context) {
	t, err := h.views.Tree(c.Request.Context(), graphview.TreeParams{
		Root:  c.Query("root"),
		Depth: queryInt(c, "depth"),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, t)
}

// GET /api/timeline
func (h *GraphHandler) Timeline(c *gin.Context) {
	items, err := h.views.Timeline(c.Request.Context(), graphview.TimelineParams{
		YearFrom: queryInt(c, "yearFrom"),
		YearTo:   queryInt(c, "yearTo"),
		Limit:    queryInt(c, "limit"),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, items)
}

// GET /api/path
func (h *GraphHandler) Path(c *gin.Context) {
	p, err := h.views.Path(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, p)
}

// POST /api/path/query
func (h *GraphHandler) PathQuery(c *gin.Context) {
	var req pathQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("invalid path query body"))
		return
	}
	params := graphview.PathParams{
		StartID:         req.StartID,
		EndID:           req.EndID,
		Strategy:        req.Strategy,
		AllowedRelTypes: req.AllowedRelTypes,
		MaxHops:         req.MaxHops.v,
	}
	if req.YearRange != nil {
		params.YearFrom = req.YearRange.From.v
		params.YearTo = req.YearRange.To.v
	}
	p, err := h.views.PathQuery(c.Request.Context(), params)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, p)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tabula-io/tabula/internal/model"
	"github.com/tabula-io/tabula/internal/pkg/response"
	"github.com/tabula-io/tabula/internal/service"
)

type SavedViewHandler struct {
	views *service.SavedViewService
}

func NewSavedViewHandler(views *service.SavedViewService) *SavedViewHandler {
	return &SavedViewHandler{views: views}
}

type savedViewCreateRequest struct {
	Name          string            `json:"name"`
	TableName     string            `json:"table_name"`
	ViewType      string            `json:"view_type"`
	Filters       []model.Filter    `json:"filters"`
	FilterMode    model.FilterMode  `json:"filter_mode"`
	GroupBy       string            `json:"group_by"`
	SearchTerm    string            `json:"search_term"`
	HiddenColumns []string          `json:"hidden_columns"`
	ColumnOrder   []string          `json:"column_order"`
	ColumnWidths  map[string]int    `json:"column_widths"`
	SortConfig    []model.SortEntry `json:"sort_config"`
}

type savedViewPatchRequest struct {
	Name          *string            `json:"name"`
	ViewType      *string            `json:"view_type"`
	Filters       *[]model.Filter    `json:"filters"`
	FilterMode    *model.FilterMode  `json:"filter_mode"`
	GroupBy       *string            `json:"group_by"`
	SearchTerm    *string            `json:"search_term"`
	HiddenColumns *[]string          `json:"hidden_columns"`
	ColumnOrder   *[]string          `json:"column_order"`
	ColumnWidths  *map[string]int    `json:"column_widths"`
	SortConfig    *[]model.SortEntry `json:"sort_config"`
}

func (h *SavedViewHandler) List(c *gin.Context) {
	items, err := h.views.List(c.Request.Context(), c.Query("table"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"views": items})
}

func (h *SavedViewHandler) Get(c *gin.Context) {
	item, err := h.views.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"view": item})
}

func (h *SavedViewHandler) Create(c *gin.Context) {
	var req savedViewCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	item, err := h.views.Create(c.Request.Context(), service.SavedViewCreateInput{
		Name:          req.Name,
		TableName:     req.TableName,
		ViewType:      req.ViewType,
		Filters:       req.Filters,
		FilterMode:    req.FilterMode,
		GroupBy:       req.GroupBy,
		SearchTerm:    req.SearchTerm,
		HiddenColumns: req.HiddenColumns,
		ColumnOrder:   req.ColumnOrder,
		ColumnWidths:  req.ColumnWidths,
		SortConfig:    req.SortConfig,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"view": item})
}

func (h *SavedViewHandler) Update(c *gin.Context) {
	var req savedViewPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	item, err := h.views.Update(c.Request.Context(), c.Param("id"), model.SavedViewPatch{
		Name:          req.Name,
		ViewType:      req.ViewType,
		Filters:       req.Filters,
		FilterMode:    req.FilterMode,
		GroupBy:       req.GroupBy,
		SearchTerm:    req.SearchTerm,
		HiddenColumns: req.HiddenColumns,
		ColumnOrder:   req.ColumnOrder,
		ColumnWidths:  req.ColumnWidths,
		SortConfig:    req.SortConfig,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"view": item})
}

func (h *SavedViewHandler) Delete(c *gin.Context) {
	if err := h.views.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}

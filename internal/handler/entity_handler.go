package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tabula-io/tabula/internal/model"
	"github.com/tabula-io/tabula/internal/pkg/response"
	"github.com/tabula-io/tabula/internal/service"
)

type EntityHandler struct {
	entities *service.EntityService
}

func NewEntityHandler(entities *service.EntityService) *EntityHandler {
	return &EntityHandler{entities: entities}
}

func (h *EntityHandler) List(c *gin.Context) {
	rows, err := h.entities.ListRows(c.Request.Context(), c.Param("table"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": rows})
}

func (h *EntityHandler) Create(c *gin.Context) {
	var req model.Row
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	row, err := h.entities.CreateRow(c.Request.Context(), c.Param("table"), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"entity": row})
}

// UpdateField accepts a single {field: value} pair and patches exactly
// that field. More than one key in the body is rejected.
func (h *EntityHandler) UpdateField(c *gin.Context) {
	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	if len(req) != 1 {
		response.Error(c, http.StatusBadRequest, "invalid", "expected a single field")
		return
	}
	var field string
	var value interface{}
	for k, v := range req {
		field, value = k, v
	}
	row, err := h.entities.UpdateField(c.Request.Context(), c.Param("table"), c.Param("id"), field, value)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"entity": row})
}

func (h *EntityHandler) Delete(c *gin.Context) {
	if err := h.entities.DeleteRow(c.Request.Context(), c.Param("table"), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}

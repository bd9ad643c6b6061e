package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tabula-io/tabula/internal/pkg/response"
	"github.com/tabula-io/tabula/internal/service"
)

// TableHandler serves the configured table descriptors so a frontend can
// render column chrome without hardcoding it.
type TableHandler struct {
	entities *service.EntityService
}

func NewTableHandler(entities *service.EntityService) *TableHandler {
	return &TableHandler{entities: entities}
}

func (h *TableHandler) List(c *gin.Context) {
	response.Success(c, gin.H{"tables": h.entities.Tables()})
}

func (h *TableHandler) Get(c *gin.Context) {
	tab, err := h.entities.Table(c.Param("name"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"table": tab})
}

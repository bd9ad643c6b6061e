package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tabula-io/tabula/internal/middleware"
)

type RouterDeps struct {
	SavedViews  *SavedViewHandler
	Entities    *EntityHandler
	Tables      *TableHandler
	AuthSecret  string
	WriteWindow time.Duration
}

// RegisterRoutes wires the API onto a group. When an auth secret is
// configured every route requires a bearer token; otherwise the API is
// open, matching a single-tenant deployment behind its own perimeter.
func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	group := api.Group("")
	if deps.AuthSecret != "" {
		group.Use(middleware.BearerAuth([]byte(deps.AuthSecret)))
	}

	writes := group.Group("")
	if deps.WriteWindow > 0 {
		writes.Use(middleware.RateLimit(deps.WriteWindow))
	}

	group.GET("/saved-views", deps.SavedViews.List)
	writes.POST("/saved-views", deps.SavedViews.Create)
	group.GET("/saved-views/:id", deps.SavedViews.Get)
	writes.PATCH("/saved-views/:id", deps.SavedViews.Update)
	writes.DELETE("/saved-views/:id", deps.SavedViews.Delete)

	group.GET("/entities/:table", deps.Entities.List)
	writes.POST("/entities/:table", deps.Entities.Create)
	writes.PATCH("/entities/:table/:id", deps.Entities.UpdateField)
	writes.DELETE("/entities/:table/:id", deps.Entities.Delete)

	group.GET("/tables", deps.Tables.List)
	group.GET("/tables/:name", deps.Tables.Get)
}

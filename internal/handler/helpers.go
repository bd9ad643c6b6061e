package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/tabula-io/tabula/internal/middleware"
	appErr "github.com/tabula-io/tabula/internal/pkg/errors"
	"github.com/tabula-io/tabula/internal/pkg/response"
)

// handleError maps the sentinel errors onto HTTP statuses. Sentinel
// outcomes are normal API responses; only unexpected errors get logged.
func handleError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case err == appErr.ErrUnauthorized:
		response.Error(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
	case err == appErr.ErrNotFound:
		response.Error(c, http.StatusNotFound, "not_found", "not found")
	case err == appErr.ErrInvalid:
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
	case err == appErr.ErrConflict:
		response.Error(c, http.StatusConflict, "conflict", "conflict")
	default:
		requestID, _ := c.Get(middleware.ContextRequestIDKey)
		logutil.GetLogger(c.Request.Context()).With(
			zap.Any("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		).Error("request failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "internal", "internal error")
	}
}

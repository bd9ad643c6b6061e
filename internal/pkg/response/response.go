package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success writes the payload as-is. Handlers own the top-level shape
// ({views: ...}, {view: ...}, {items: ...}, {entity: ...}) so that API
// consumers see exactly the documented contract.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Error writes {error: <message>, code: <machine code>} with the given
// HTTP status. The error field stays a plain string for clients that
// only want something to display.
func Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": message, "code": code})
}

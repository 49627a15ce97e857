package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// Recovery turns panics into a JSON 500. Panic detail and stack are only
// included outside production.
func Recovery(logger *log.Logger, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				stack := string(debug.Stack())
				logger.Error("Panic recovered", "err", rec, "path", c.Request.URL.Path, "requestId", GetRequestID(c), "stack", stack)

				body := gin.H{"error": "Internal server error"}
				if !production {
					body["message"] = fmt.Sprint(rec)
					body["stack"] = stack
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, body)
			}
		}()
		c.Next()
	}
}

package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects bodies explicitly sent as something other than JSON.
// A missing Content-Type is let through and parsed as JSON.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			ct := strings.ToLower(strings.TrimSpace(c.GetHeader("Content-Type")))
			// allow "application/json; charset=utf-8"
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
					"error":   "Unsupported Media Type",
					"message": "Content-Type must be application/json",
				})
				return
			}
		}
		c.Next()
	}
}

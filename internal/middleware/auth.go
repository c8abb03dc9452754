package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APITokenMiddleware validates the shared fleet token sent by devices and
// operators in the X-OTA-Token header. Every protected route requires it;
// the firmware download and health endpoints stay open so bootloaders and
// probes without header support keep working.
func APITokenMiddleware(apiToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-OTA-Token")
		if token == "" {
			unauthorizedResponse(c, "X-OTA-Token header is required")
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(apiToken)) != 1 {
			unauthorizedResponse(c, "Invalid API token")
			return
		}

		c.Next()
	}
}

// unauthorizedResponse is a helper to return 401 responses
func unauthorizedResponse(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error":   "Unauthorized",
		"message": message,
	})
	c.Abort()
}

package middleware

import (
	"crypto/subtle"
	"net/http"

	"shoplist-service/internal/realtime"
	"shoplist-service/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireInternalSecret guards process-to-process endpoints. With an empty
// secret the endpoints are disabled.
func RequireInternalSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			response.Error(c, http.StatusNotFound, "internal endpoints are disabled")
			return
		}
		got := c.GetHeader(realtime.InternalSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			response.Error(c, http.StatusForbidden, "invalid internal secret")
			return
		}
		c.Next()
	}
}

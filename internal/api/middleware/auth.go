package middleware

import (
	"net/http"

	"shoplist-service/internal/auth"
	"shoplist-service/pkg/response"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

type AuthMiddleware struct {
	authenticator auth.Authenticator
}

func NewAuthMiddleware(authenticator auth.Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator}
}

// RequireAuth verifies the bearer token and stores the caller's id under
// "user_id". The token query parameter is accepted for EventSource clients.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.TokenFromRequest(c.Request)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, auth.ErrMissingCredential.Error())
			return
		}

		userID, err := am.authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, err.Error())
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// GetUserID returns the id stored by RequireAuth.
func GetUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(userIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"shoplist-service/pkg/response"

	"github.com/gin-gonic/gin"
)

// Limiter decides whether one more request under key fits in the window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type RateLimitMiddleware struct {
	limiter Limiter
	logger  *slog.Logger
}

func NewRateLimitMiddleware(limiter Limiter, logger *slog.Logger) *RateLimitMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimitMiddleware{limiter: limiter, logger: logger}
}

// RateLimit limits authenticated callers per user and route group. It must
// run after RequireAuth.
func (rm *RateLimitMiddleware) RateLimit(scope string, requests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "authentication required")
			return
		}
		rm.check(c, fmt.Sprintf("rate_limit:%s:%d", scope, userID), requests, window)
	}
}

// RateLimitIP limits public routes by client address.
func (rm *RateLimitMiddleware) RateLimitIP(scope string, requests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		rm.check(c, fmt.Sprintf("rate_limit_ip:%s:%s", scope, c.ClientIP()), requests, window)
	}
}

func (rm *RateLimitMiddleware) check(c *gin.Context, key string, requests int, window time.Duration) {
	allowed, err := rm.limiter.Allow(c.Request.Context(), key, requests, window)
	if err != nil {
		// Fail open while the limiter backend is unavailable.
		rm.logger.Warn("Rate limit check failed, allowing request", "key", key, "error", err)
		c.Next()
		return
	}
	if !allowed {
		c.Header("Retry-After", fmt.Sprintf("%.0f", window.Seconds()))
		response.Error(c, http.StatusTooManyRequests, fmt.Sprintf("Too many requests. Limit: %d per %v", requests, window))
		return
	}
	c.Next()
}

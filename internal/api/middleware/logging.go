package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// LogApi writes one access line per request. Paths in skip (health checks)
// are not logged.
func LogApi(skip ...string) gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: skip,
		Formatter: func(param gin.LogFormatterParams) string {
			user := "-"
			if id, ok := param.Keys[userIDKey]; ok {
				user = fmt.Sprint(id)
			}
			return fmt.Sprintf("[%s] | %s | %d | %s | %s | user=%s | %s | %s\n",
				param.TimeStamp.Format("2006-01-02 15:04:05"),
				param.ClientIP,
				param.StatusCode,
				param.Method,
				param.Path,
				user,
				param.Latency,
				param.ErrorMessage,
			)
		},
	})
}

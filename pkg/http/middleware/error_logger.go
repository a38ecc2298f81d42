package middleware

import (
	"github.com/Sokol111/match-events/pkg/core/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errorLoggerMiddleware logs errors from Gin context.
// 4xx are logged at warn, everything else at error.
func errorLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		log := logger.Get(c.Request.Context())
		status := c.Writer.Status()
		for _, e := range c.Errors {
			fields := append(requestFields(c),
				zap.Int("status", status),
				zap.String("error", e.Error()),
			)
			if status >= 400 && status < 500 {
				log.Warn("request rejected", fields...)
				continue
			}
			log.Error("request failed", fields...)
		}
	}
}

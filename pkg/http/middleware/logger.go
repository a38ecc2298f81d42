package middleware

import (
	"time"

	"github.com/Sokol111/match-events/pkg/core/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// requestLoggerMiddleware attaches a request-scoped logger (with trace ids when a span is
// active) to the request context and logs every non-health request at debug level.
func requestLoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := log
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.IsValid() {
			reqLog = log.With(zap.String("trace_id", sc.TraceID().String()), zap.String("span_id", sc.SpanID().String()))
		}
		c.Request = c.Request.WithContext(logger.With(c.Request.Context(), reqLog))

		if isHealthPath(c) {
			c.Next()
			return
		}

		start := time.Now()

		c.Next()

		fields := append(requestFields(c),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_agent", c.Request.UserAgent()),
		)
		reqLog.Debug("request served", fields...)
	}
}

package middleware

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/Sokol111/match-events/pkg/core/logger"
	"github.com/Sokol111/match-events/pkg/http/problems"
	"github.com/Sokol111/match-events/pkg/http/server"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// skipProbes lets health probes bypass a guard so a saturated ingest path never fails
// readiness.
func skipProbes(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isHealthPath(c) {
			c.Next()
			return
		}
		h(c)
	}
}

// shed rejects the request and tells the client when to come back.
func shed(c *gin.Context, p *problems.Problem, retryAfter time.Duration) {
	if retryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
	}
	abort(c, p)
}

// recoveryGuard turns a handler panic into a 500 problem.
func recoveryGuard() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		fields := append(requestFields(c), zap.Any("panic", recovered), zap.Stack("stack"))
		logger.Get(c.Request.Context()).Error("handler panicked", fields...)
		abort(c, problems.Internal(""))
	})
}

// timeoutGuard puts a deadline on the request context. The ingest handler observes it
// while waiting for the broker ack; a request that runs past it without a response
// gets a 504.
func timeoutGuard(conf server.TimeoutConfig, log *zap.Logger) gin.HandlerFunc {
	if !conf.IsEnabled() {
		return nil
	}
	return skipProbes(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), conf.RequestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if !errors.Is(ctx.Err(), context.DeadlineExceeded) || c.Writer.Written() || len(c.Errors) > 0 {
			return
		}
		log.Warn("request deadline exceeded", append(requestFields(c), zap.Duration("timeout", conf.RequestTimeout))...)
		abort(c, problems.GatewayTimeout("request took too long to process"))
	})
}

// rateLimitGuard is a token bucket shared by all non-probe routes.
func rateLimitGuard(conf server.RateLimitConfig) gin.HandlerFunc {
	if !conf.IsEnabled() {
		return nil
	}
	limiter := rate.NewLimiter(rate.Limit(conf.RequestsPerSecond), conf.Burst)
	return skipProbes(func(c *gin.Context) {
		r := limiter.Reserve()
		if !r.OK() {
			shed(c, problems.New(http.StatusTooManyRequests, "rate limit exceeded"), 0)
			return
		}
		if delay := r.Delay(); delay > 0 {
			r.Cancel()
			shed(c, problems.New(http.StatusTooManyRequests, "rate limit exceeded, please try again later"), delay)
			return
		}
		c.Next()
	})
}

// bulkheadGuard caps in-flight requests. A request waits up to conf.Timeout for a slot.
func bulkheadGuard(conf server.BulkheadConfig, log *zap.Logger) gin.HandlerFunc {
	if !conf.IsEnabled() {
		return nil
	}
	sem := semaphore.NewWeighted(int64(conf.MaxConcurrent))
	return skipProbes(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), conf.Timeout)
		err := sem.Acquire(ctx, 1)
		cancel()
		if err != nil {
			log.Warn("bulkhead full, rejecting request",
				zap.Int("max_concurrent", conf.MaxConcurrent),
				zap.String("path", c.Request.URL.Path),
			)
			shed(c, problems.ServiceUnavailable("too many concurrent requests, please try again later"), conf.Timeout)
			return
		}
		defer sem.Release(1)
		c.Next()
	})
}

package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/Sokol111/match-events/pkg/http/problems"
	"github.com/Sokol111/match-events/pkg/http/server"
	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var errServerError = errors.New("server error")

func newCircuitBreaker(
	maxRequests uint32,
	interval time.Duration,
	timeout time.Duration,
	failureThreshold uint32,
	log *zap.Logger,
) *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        "http",
		MaxRequests: maxRequests,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return gobreaker.NewCircuitBreaker(settings)
}

// newCircuitBreakerMiddleware counts requests ending in 5xx (a 503 from an unavailable
// broker, a 504 from a publish timeout) as failures. While open it answers 503 without
// calling the handler.
func newCircuitBreakerMiddleware(cb *gobreaker.CircuitBreaker, openFor time.Duration) gin.HandlerFunc {
	return skipProbes(func(c *gin.Context) {
		_, err := cb.Execute(func() (interface{}, error) {
			c.Next()

			if responseStatus(c) >= http.StatusInternalServerError {
				return nil, errServerError
			}
			return nil, nil
		})

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			shed(c, problems.ServiceUnavailable("service is temporarily unavailable, please try again later"), openFor)
		}
	})
}

func circuitBreakerGuard(conf server.CircuitBreakerConfig, log *zap.Logger) gin.HandlerFunc {
	if !conf.IsEnabled() {
		return nil
	}
	log.Debug("circuit breaker enabled",
		zap.Uint32("failure_threshold", conf.FailureThreshold),
		zap.Duration("open_for", conf.Timeout),
	)
	return newCircuitBreakerMiddleware(
		newCircuitBreaker(conf.MaxRequests, conf.Interval, conf.Timeout, conf.FailureThreshold, log),
		conf.Timeout,
	)
}

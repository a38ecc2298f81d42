package middleware

import (
	"github.com/Sokol111/match-events/pkg/http/server"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewGinModule provides the gin engine with the middleware chain. Lower priority wraps
// higher; otelgin joins at 5 from the observability module.
func NewGinModule() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(chain, fx.ResultTags(`group:"gin_mw,flatten"`)),
			provideGinAndHandler,
		),
	)
}

func chain(conf server.Config, log *zap.Logger) []Middleware {
	return []Middleware{
		{Priority: 10, Handler: requestLoggerMiddleware(log)},
		{Priority: 20, Handler: errorLoggerMiddleware()},
		{Priority: 30, Handler: ProblemHandler()},
		{Priority: 40, Handler: recoveryGuard()},
		{Priority: 50, Handler: timeoutGuard(conf.Timeout, log)},
		{Priority: 60, Handler: rateLimitGuard(conf.RateLimit)},
		{Priority: 70, Handler: bulkheadGuard(conf.Bulkhead, log)},
		{Priority: 80, Handler: circuitBreakerGuard(conf.CircuitBreaker, log)},
	}
}

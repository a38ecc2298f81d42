// Package modules assembles the gin HTTP stack: server, middleware chain, problem
// rendering and health routes. Application routes are registered on *gin.Engine.
package modules

import (
	"github.com/Sokol111/match-events/pkg/http/health"
	"github.com/Sokol111/match-events/pkg/http/middleware"
	"github.com/Sokol111/match-events/pkg/http/server"
	"go.uber.org/fx"
)

func NewHTTPModule() fx.Option {
	return fx.Options(
		server.NewHTTPServerModule(),
		middleware.NewGinModule(),
		health.NewHealthRoutesModule(),
	)
}

package server

import (
	"context"
	"net/http"

	"github.com/Sokol111/match-events/pkg/core/health"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewHTTPServerModule serves the http.Handler provided elsewhere (the gin engine) on
// server.port. Routes are registered before OnStart runs.
func NewHTTPServerModule() fx.Option {
	return fx.Options(
		fx.Provide(newConfig),
		fx.Invoke(runServer),
	)
}

func runServer(lc fx.Lifecycle, log *zap.Logger, conf Config, handler http.Handler, readiness health.ComponentManager, shutdowner fx.Shutdowner) {
	srv := New(log, conf, handler)
	markReady := readiness.AddComponent("http-server")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			err := srv.Start(ctx, func(err error) {
				log.Error("HTTP server failed, shutting down", zap.Error(err))
				_ = shutdowner.Shutdown(fx.ExitCode(1)) //nolint:errcheck // best effort
			})
			if err != nil {
				return err
			}
			markReady()
			return nil
		},
		OnStop: srv.Stop,
	})
}

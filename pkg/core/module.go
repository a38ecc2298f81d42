// Package core provides what every matchpipeline process needs: configuration,
// logging and readiness tracking.
package core

import (
	"time"

	"github.com/Sokol111/match-events/pkg/core/config"
	"github.com/Sokol111/match-events/pkg/core/health"
	"github.com/Sokol111/match-events/pkg/core/logger"
	"go.uber.org/fx"
)

// DrainTimeout bounds start and stop. Stop waits for in-flight workflow executions,
// so it is at least the workflow's max processing time.
const DrainTimeout = 5 * time.Minute

// NewCoreModule loads .env files, the config file named by src (or CONFIG_FILE) and
// sets up the logger and readiness tracker.
func NewCoreModule(src config.Source) fx.Option {
	return fx.Options(
		fx.StartTimeout(DrainTimeout),
		fx.StopTimeout(DrainTimeout),
		fx.Supply(src),
		config.NewDotEnvModule(),
		config.NewViperModule(),
		config.NewAppConfigModule(),
		logger.NewZapLoggingModule(),
		health.NewReadinessModule(),
	)
}

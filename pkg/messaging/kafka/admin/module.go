package admin

import (
	"github.com/Sokol111/match-events/pkg/messaging/kafka/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewAdminModule provides a Manager for the configured brokers.
func NewAdminModule() fx.Option {
	return fx.Provide(func(conf config.Config, log *zap.Logger) *Manager {
		return NewManager(conf.Admin, StaticResolver(conf.Brokers), NewConfluentClient, log)
	})
}

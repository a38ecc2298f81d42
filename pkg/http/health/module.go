package health

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// NewHealthRoutesModule serves /health/ready and /health/live on the gin engine.
func NewHealthRoutesModule() fx.Option {
	return fx.Options(
		fx.Provide(newHealthHandler),
		fx.Invoke(func(r *gin.Engine, h *healthHandler) {
			h.register(r.Group("/health"))
		}),
	)
}

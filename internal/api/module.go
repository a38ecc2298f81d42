package api

import (
	"github.com/Sokol111/match-events/pkg/match"
	"github.com/Sokol111/match-events/pkg/messaging/kafka/config"
	"github.com/Sokol111/match-events/pkg/messaging/kafka/producer"
	"github.com/Sokol111/match-events/pkg/query"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// NewIngestModule registers POST /matches/event. It needs a producer.Publisher and the
// kafka config.
func NewIngestModule() fx.Option {
	return fx.Options(
		fx.Provide(
			match.NewCodec,
			func(p producer.Publisher, codec *match.Codec, conf config.Config) *IngestHandler {
				return NewIngestHandler(p, codec, conf.Topic.Name)
			},
		),
		fx.Invoke(func(r *gin.Engine, h *IngestHandler) {
			r.POST("/matches/event", h.Ingest)
		}),
	)
}

// NewQueryRoutesModule registers GET /matches/:matchId/:eventType over *query.Service.
func NewQueryRoutesModule() fx.Option {
	return fx.Options(
		fx.Provide(func(s *query.Service) *QueryHandler { return NewQueryHandler(s) }),
		fx.Invoke(func(r *gin.Engine, h *QueryHandler) {
			r.GET("/matches/:matchId/:eventType", h.ByMatchAndType)
		}),
	)
}

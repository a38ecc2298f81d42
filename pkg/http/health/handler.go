package health

import (
	"net/http"

	coreHealth "github.com/Sokol111/match-events/pkg/core/health"
	"github.com/gin-gonic/gin"
)

type healthHandler struct {
	readiness coreHealth.ReadinessChecker
}

func newHealthHandler(r coreHealth.ReadinessChecker) *healthHandler {
	return &healthHandler{readiness: r}
}

// register adds the probe routes. HEAD is accepted for load balancers that probe without a body.
func (h *healthHandler) register(g gin.IRouter) {
	g.GET("/ready", h.IsReady)
	g.HEAD("/ready", h.IsReady)
	g.GET("/live", h.IsLive)
	g.HEAD("/live", h.IsLive)
}

// IsReady answers "ready"/"not ready" for probes, or the per-component status as JSON
// when asked with ?format=json or Accept: application/json.
func (h *healthHandler) IsReady(c *gin.Context) {
	code := http.StatusOK
	if !h.readiness.IsReady() {
		code = http.StatusServiceUnavailable
	}

	if c.Query("format") == "json" || c.GetHeader("Accept") == "application/json" {
		c.JSON(code, h.readiness.GetStatus())
		return
	}

	if code == http.StatusOK {
		c.String(code, "ready")
	} else {
		c.String(code, "not ready")
	}
}

func (h *healthHandler) IsLive(c *gin.Context) {
	c.String(http.StatusOK, "alive")
}

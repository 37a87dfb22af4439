package router

import (
	"github.com/deppfellow/bltz-shield/internal/handler"
	"github.com/deppfellow/bltz-shield/internal/server"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes registers the endpoints that are not part of the
// metadata API: status document, landing page, health and metrics.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers, s *server.Server) {
	r.GET("/", h.Status.Landing)
	r.GET("/api", h.Status.Status)

	r.GET("/status", h.Health.CheckHealth)

	if metrics := s.Config.Observability.Metrics; metrics.Enabled {
		r.GET(metrics.Path, echo.WrapHandler(s.Metrics.Handler()))
	}
}

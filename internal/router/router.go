// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API routes, mapping each
// path to its handler.
package router

import (
	"github.com/deppfellow/bltz-shield/internal/handler"
	"github.com/deppfellow/bltz-shield/internal/middleware"
	"github.com/deppfellow/bltz-shield/internal/server"
	"github.com/deppfellow/bltz-shield/internal/service"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// NewRouter builds the echo instance with the global middleware chain and
// every route.
//
// Global order (outermost first): request id, New Relic, request logger
// context, access log, metrics, panic recovery, CORS, secure headers. The
// recovery sits inside the logger and metrics so a panic is recorded as the
// 500 it turns into.
func NewRouter(s *server.Server, h *handler.Handlers, services *service.Services) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s, services)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Metrics.Observe(),
		middlewares.Global.Recover(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
	)

	registerSystemRoutes(router, h, s)
	registerMetadataRoutes(router, h, middlewares, s, services)

	return router
}

// registerMetadataRoutes mounts the metadata API at the root and under /api.
//
// The API key check runs first, so a rejected request is never subject to
// the body limit or the rate limiter, and its body is never read. A known
// path with the wrong method (GET /metadata) gets echo's 405, which the
// global error handler renders as 404 "Unknown endpoint".
func registerMetadataRoutes(r *echo.Echo, h *handler.Handlers, m *middleware.Middlewares, s *server.Server, services *service.Services) {
	accept := h.Metadata.Accept()
	recent := h.Metadata.Recent()

	for _, prefix := range []string{"", "/api"} {
		r.POST(prefix+"/metadata", accept,
			m.Auth.RequireAPIKey,
			echoMiddleware.BodyLimit(s.Config.Server.BodyLimit),
			m.RateLimit.Limit(),
		)

		// Without a readable store the listing route does not exist and
		// falls through to the unknown endpoint 404.
		if services.Metadata.CanRead() {
			r.GET(prefix+"/metadata/recent", recent, m.Auth.RequireAPIKey)
		}
	}
}

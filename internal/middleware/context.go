package middleware

import (
	"github.com/deppfellow/bltz-shield/internal/logger"
	"github.com/deppfellow/bltz-shield/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

const (
	// LoggerKey is the echo context key of the request-scoped logger.
	LoggerKey = "logger"

	// AuthenticatedKey is set to true by the auth middleware once the API
	// key has been accepted.
	AuthenticatedKey = "authenticated"
)

// ContextEnhancer builds a request-scoped logger carrying request_id,
// method, path, ip and, when New Relic is on, trace.id and span.id.
//
// The logger is stored both on the echo context and on the request's
// context.Context, so the service layer can reach it with zerolog.Ctx.
type ContextEnhancer struct {
	server *server.Server
}

func NewContextEnhancer(s *server.Server) *ContextEnhancer {
	return &ContextEnhancer{server: s}
}

func (ce *ContextEnhancer) EnhanceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			contextLogger := ce.server.Logger.With().
				Str("request_id", GetRequestID(c)).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("ip", c.RealIP()).
				Logger()

			if txn := newrelic.FromContext(c.Request().Context()); txn != nil {
				contextLogger = logger.WithTraceContext(contextLogger, txn)
			}

			c.Set(LoggerKey, &contextLogger)

			ctx := contextLogger.WithContext(c.Request().Context())
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// IsAuthenticated reports whether the request passed the API key check.
func IsAuthenticated(c echo.Context) bool {
	ok, _ := c.Get(AuthenticatedKey).(bool)
	return ok
}

// GetLogger returns the request-scoped logger, or the nop logger if
// EnhanceContext did not run.
func GetLogger(c echo.Context) *zerolog.Logger {
	if logger, ok := c.Get(LoggerKey).(*zerolog.Logger); ok {
		return logger
	}

	logger := zerolog.Nop()
	return &logger
}

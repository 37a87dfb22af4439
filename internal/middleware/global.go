package middleware

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/deppfellow/bltz-shield/internal/errs"
	"github.com/deppfellow/bltz-shield/internal/server"
	"github.com/deppfellow/bltz-shield/internal/sqlerr"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// GlobalMiddlewares groups the middleware applied to every route, plus the
// global error handler.
type GlobalMiddlewares struct {
	server *server.Server
}

func NewGlobalMiddlewares(s *server.Server) *GlobalMiddlewares {
	return &GlobalMiddlewares{
		server: s,
	}
}

// CORS allows browser clients from the configured origins ("*" by default)
// to call GET and POST endpoints with the Content-Type and X-API-Key
// headers. Preflight OPTIONS requests are answered here with 204.
//
// echo only writes CORS headers when the request has an Origin header.
// Requests without one (curl, extensions' background pages) still get them
// on every response, including errors.
func (global *GlobalMiddlewares) CORS() echo.MiddlewareFunc {
	origins := global.server.Config.Server.CORSAllowedOrigins
	methods := []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	headers := []string{echo.HeaderContentType, APIKeyHeader}

	cors := middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: methods,
		AllowHeaders: headers,
	})

	defaultOrigin := ""
	switch {
	case slices.Contains(origins, "*"):
		defaultOrigin = "*"
	case len(origins) == 1:
		defaultOrigin = origins[0]
	}
	allowMethods := strings.Join(methods, ",")
	allowHeaders := strings.Join(headers, ",")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withCORS := cors(next)
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderOrigin) == "" {
				h := c.Response().Header()
				if defaultOrigin != "" {
					h.Set(echo.HeaderAccessControlAllowOrigin, defaultOrigin)
				}
				h.Set(echo.HeaderAccessControlAllowMethods, allowMethods)
				h.Set(echo.HeaderAccessControlAllowHeaders, allowHeaders)
			}
			return withCORS(c)
		}
	}
}

// RequestLogger emits one "API" log line per request, with the level taken
// from the final status: Error for 5xx, Warn for 4xx, Info otherwise.
//
// When a handler returns an error the response has not been written yet,
// so the status is derived from the error (see
// https://github.com/labstack/echo/issues/2310#issuecomment-1288196898).
func (global *GlobalMiddlewares) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogHost:    true,
		LogMethod:  true,
		LogURIPath: true,

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			statusCode := v.Status
			if v.Error != nil {
				statusCode = responseStatus(c, v.Error)
			}

			logger := GetLogger(c)

			var e *zerolog.Event
			switch {
			case statusCode >= 500:
				e = logger.Error().Err(v.Error)
			case statusCode >= 400:
				e = logger.Warn()
			default:
				e = logger.Info()
			}

			if requestID := GetRequestID(c); requestID != "" {
				e = e.Str("request_id", requestID)
			}

			e.
				Dur("latency", v.Latency).
				Int("status", statusCode).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("host", v.Host).
				Str("ip", c.RealIP()).
				Str("user_agent", c.Request().UserAgent()).
				Bool("authenticated", IsAuthenticated(c)).
				Msg("API")

			return nil
		},
	})
}

// Recover turns panics into errors returned up the chain, so the request
// logger records them and the global error handler answers 500.
func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableErrorHandler: true,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			GetLogger(c).Error().
				Err(err).
				Str("stack", string(stack)).
				Msg("recovered from panic")
			return fmt.Errorf("panic: %w", err)
		},
	})
}

// Secure sets the standard security headers.
func (global *GlobalMiddlewares) Secure() echo.MiddlewareFunc {
	return middleware.Secure()
}

// GlobalErrorHandler is the final error funnel for the HTTP server.
//
// Every error is turned into the {result, message, timestamp, code}
// envelope:
//   - *errs.HTTPError is rendered as is
//   - echo's 404 and 405 become 404 "Unknown endpoint"
//   - other echo errors (413 from the body limit) keep their status
//   - anything else, storage failures and panics included, is a 500 with
//     no internal detail
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	originalErr := err

	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) {
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			switch echoErr.Code {
			case http.StatusNotFound, http.StatusMethodNotAllowed:
				httpErr = errs.NewUnknownEndpointError()
			default:
				message, _ := echoErr.Message.(string)
				httpErr = errs.NewFromStatus(echoErr.Code, message)
			}
		} else {
			converted := sqlerr.HandleError(err)
			if !errors.As(converted, &httpErr) {
				httpErr = errs.NewInternalServerError()
			}
		}
	}

	logger := *GetLogger(c)

	var event *zerolog.Event
	if httpErr.Status >= http.StatusInternalServerError {
		event = logger.Error().Stack().Err(originalErr)
		if details, ok := sqlerr.Describe(originalErr); ok {
			event = event.
				Str("db_error_code", details.ErrorCode).
				Str("db_sqlstate", details.DatabaseCode).
				Str("db_error", details.Description)
		}
	} else {
		event = logger.Debug().Err(originalErr)
	}

	event.
		Int("status", httpErr.Status).
		Str("error_code", httpErr.Code).
		Msg(httpErr.Message)

	if c.Response().Committed {
		return
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(httpErr.Status)
		return
	}
	_ = c.JSON(httpErr.Status, httpErr.Response(time.Now()))
}

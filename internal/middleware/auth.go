package middleware

import (
	"github.com/deppfellow/bltz-shield/internal/errs"
	"github.com/deppfellow/bltz-shield/internal/server"
	"github.com/deppfellow/bltz-shield/internal/service"
	"github.com/labstack/echo/v4"
)

// APIKeyHeader is the header carrying the shared secret.
const APIKeyHeader = "X-API-Key"

// AuthMiddleware guards routes with the static API key.
type AuthMiddleware struct {
	server *server.Server
	auth   *service.AuthService
}

func NewAuthMiddleware(s *server.Server, auth *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		server: s,
		auth:   auth,
	}
}

// RequireAPIKey rejects the request with 401 unless X-API-Key equals the
// configured key.
//
// Only the header is inspected: a rejected request's body is never read,
// so it cannot produce a 400. The presented key is never logged.
func (a *AuthMiddleware) RequireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ok, reason := a.auth.Authenticate(c.Request().Header.Get(APIKeyHeader))
		if !ok {
			if a.server.Metrics != nil {
				a.server.Metrics.RecordAuthFailure(reason)
			}
			GetLogger(c).Warn().
				Str("function", "RequireAPIKey").
				Str("reason", reason).
				Msg("rejected api key")

			return errs.NewUnauthorizedError(errs.MsgUnauthorized)
		}

		c.Set(AuthenticatedKey, true)
		return next(c)
	}
}

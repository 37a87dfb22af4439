package service

import (
	"crypto/subtle"

	"github.com/deppfellow/bltz-shield/internal/metrics"
	"github.com/deppfellow/bltz-shield/internal/server"
)

// AuthService checks the shared secret sent in X-API-Key.
type AuthService struct {
	apiKey []byte
}

func NewAuthService(s *server.Server) *AuthService {
	return &AuthService{
		apiKey: []byte(s.Config.Auth.APIKey),
	}
}

// Authenticate reports whether key equals the configured secret. On failure
// reason is metrics.AuthMissing or metrics.AuthInvalid.
func (a *AuthService) Authenticate(key string) (ok bool, reason string) {
	if key == "" {
		return false, metrics.AuthMissing
	}
	if len(a.apiKey) == 0 || subtle.ConstantTimeCompare([]byte(key), a.apiKey) != 1 {
		return false, metrics.AuthInvalid
	}
	return true, ""
}

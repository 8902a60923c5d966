package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/covelight/agencydesk/domain"
	"github.com/covelight/agencydesk/internal/identity"
)

// principalContextKey is where the resolved principal is stashed on the echo
// context for downstream handlers.
const principalContextKey = "auth_principal"

// AuthConfig configures the request-boundary auth gate.
type AuthConfig struct {
	Sessions   domain.SessionStore
	CookieName string

	// ClaimsSecret verifies legacy bearer tokens; the claims fallback path.
	ClaimsSecret []byte

	// Skipper exempts routes (login, OAuth redirects, health) from the gate.
	Skipper func(c echo.Context) bool
}

// Auth resolves the request identity, session-first with a claims fallback,
// and attaches the principal to the context. Requests with neither identity
// source get a 401 with a structured body; there is no distinction between
// bad and absent credentials at this layer.
func Auth(cfg AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			var sess *domain.SessionRecord
			if cookie, err := c.Cookie(cfg.CookieName); err == nil && cookie.Value != "" {
				rec, getErr := cfg.Sessions.Get(c.Request().Context(), cookie.Value)
				switch {
				case getErr == nil:
					sess = rec
				case errors.Is(getErr, domain.ErrNotFound):
					// Expired or logged-out session; fall through to claims.
				default:
					log.Error().Err(getErr).Msg("Session store lookup failed")
				}
			}

			claims := identity.ParseBearerClaims(
				c.Request().Header.Get(echo.HeaderAuthorization), cfg.ClaimsSecret)

			principal := identity.Resolve(sess, claims)
			if principal == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
			}

			c.Set(principalContextKey, principal)
			return next(c)
		}
	}
}

// PrincipalFrom retrieves the resolved principal attached by Auth.
func PrincipalFrom(c echo.Context) (*domain.Principal, bool) {
	principal, ok := c.Get(principalContextKey).(*domain.Principal)
	return principal, ok && principal != nil
}

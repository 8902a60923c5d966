// Package echo exposes the HTTP surface of the server: session auth,
// provider connect and callback flows, and the integration read endpoints.
package echo

import (
	"net/http"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/labstack/echo/v4"

	"github.com/covelight/agencydesk/config"
	"github.com/covelight/agencydesk/domain"
	"github.com/covelight/agencydesk/internal/fbads"
	"github.com/covelight/agencydesk/internal/federation"
	appmw "github.com/covelight/agencydesk/middleware"
	"github.com/covelight/agencydesk/services"
)

// stateTTL bounds how long a user has to complete the provider consent
// screen before the connect flow must be restarted.
const stateTTL = 10 * time.Minute

// API holds the handler dependencies.
type API struct {
	cfg       *config.ServerConfig
	users     domain.UserRepository
	team      domain.TeamMemberRepository
	tokens    domain.OAuthTokenRepository
	sessions  domain.SessionStore
	providers map[string]federation.OAuth2Provider
	calendar  *services.CalendarService
	ads       *fbads.Client

	// states binds an issued OAuth state value to the connecting user for
	// the duration of the consent round trip.
	states *ttlcache.Cache[string, string]

	healthCheck func(c echo.Context) error
}

// NewAPI wires the HTTP handlers.
func NewAPI(
	cfg *config.ServerConfig,
	users domain.UserRepository,
	team domain.TeamMemberRepository,
	tokens domain.OAuthTokenRepository,
	sessions domain.SessionStore,
	providers map[string]federation.OAuth2Provider,
	calendar *services.CalendarService,
	ads *fbads.Client,
) *API {
	states := ttlcache.New(
		ttlcache.WithTTL[string, string](stateTTL),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go states.Start()

	return &API{
		cfg:       cfg,
		users:     users,
		team:      team,
		tokens:    tokens,
		sessions:  sessions,
		providers: providers,
		calendar:  calendar,
		ads:       ads,
		states:    states,
	}
}

// SetHealthCheck overrides the dependency probe used by the health endpoint.
func (a *API) SetHealthCheck(check func(c echo.Context) error) {
	a.healthCheck = check
}

// RegisterRoutes mounts every route on the echo instance. Callback routes
// and their aliases stay outside the auth gate; the browser arrives on them
// from a provider redirect without any credentials we control.
func (a *API) RegisterRoutes(e *echo.Echo) {
	gate := appmw.Auth(appmw.AuthConfig{
		Sessions:     a.sessions,
		CookieName:   a.cfg.SessionCookieName,
		ClaimsSecret: []byte(a.cfg.LegacyJWTSecret),
		Skipper:      gateExemptions,
	})

	e.GET("/healthz", a.Health)

	apiGroup := e.Group("/api", gate)
	apiGroup.POST("/auth/login", a.Login)
	apiGroup.POST("/auth/logout", a.Logout)
	apiGroup.GET("/auth/me", a.Me)
	apiGroup.GET("/auth/google/callback", a.googleCallbackAlias)
	apiGroup.GET("/calendar/events", a.CalendarEvents)
	apiGroup.GET("/integrations/facebook/insights", a.FacebookInsights)

	e.GET("/oauth/:provider/connect", a.OAuthConnect, gate)
	e.GET("/oauth/:provider/callback", a.OAuthCallback)

	// Legacy callback path still registered in provider consoles.
	e.GET("/auth/google/callback", a.googleCallbackAlias)
}

// gateExemptions lists the routes under the gated group a browser must be
// able to reach without credentials: login itself, and the legacy callback
// alias the provider redirects to mid-consent.
func gateExemptions(c echo.Context) bool {
	switch c.Path() {
	case "/api/auth/login", "/api/auth/google/callback":
		return true
	}
	return false
}

// Health reports readiness; it checks the database connection.
func (a *API) Health(c echo.Context) error {
	if a.healthCheck != nil {
		if err := a.healthCheck(c); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// Close stops the state cache janitor.
func (a *API) Close() {
	a.states.Stop()
}

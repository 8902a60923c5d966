package echo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jellydator/ttlcache/v3"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/covelight/agencydesk/domain"
	"github.com/covelight/agencydesk/internal/federation"
	appmw "github.com/covelight/agencydesk/middleware"
)

// Failure reasons surfaced to the browser on the redirect back from a
// provider callback. The client renders these verbatim, so the set is fixed.
const (
	reasonMissingParams      = "missing_params"
	reasonCallbackFailed     = "callback_failed"
	reasonEmailNotRecognized = "email_not_recognized"
)

// connectedMarker names the query flag each provider flips on the landing
// page ("calendar=connected", "ads=connected").
func connectedMarker(provider string) string {
	if provider == domain.ProviderFacebook {
		return "ads"
	}
	return "calendar"
}

// OAuthConnect starts the consent flow for a provider. The generated state
// value is bound to the authenticated user so the callback can verify the
// round trip came from a flow this server started.
func (a *API) OAuthConnect(c echo.Context) error {
	principal, ok := appmw.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}

	provider, ok := a.providers[c.Param("provider")]
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Unknown provider"})
	}

	state, err := federation.GenerateAuthState()
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate OAuth state")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Internal server error"})
	}
	a.states.Set(state, principal.UserID, ttlcache.DefaultTTL)

	return c.Redirect(http.StatusFound, provider.AuthCodeURL(state))
}

// OAuthCallback completes the consent flow. Every failure mode resolves to
// a redirect back into the client app; the browser is mid-navigation here
// and a JSON error body would strand the user on a blank page.
func (a *API) OAuthCallback(c echo.Context) error {
	providerName := c.Param("provider")
	marker := connectedMarker(providerName)

	provider, ok := a.providers[providerName]
	if !ok {
		return a.redirectFailure(c, marker, reasonMissingParams)
	}

	code := c.QueryParam("code")
	state := c.QueryParam("state")
	if errParam := c.QueryParam("error"); errParam != "" || code == "" || state == "" {
		log.Warn().
			Str("provider", providerName).
			Str("error", c.QueryParam("error")).
			Msg("OAuth callback arrived without a usable code")
		return a.redirectFailure(c, marker, reasonMissingParams)
	}

	// Consume the state binding in one step so concurrent callbacks with
	// the same state cannot both pass. A state this server never issued,
	// or one past its TTL, is treated the same as absent parameters.
	if _, found := a.states.GetAndDelete(state); !found {
		log.Warn().Str("provider", providerName).Msg("OAuth callback with unknown state")
		return a.redirectFailure(c, marker, reasonMissingParams)
	}

	ctx := c.Request().Context()

	token, err := provider.Exchange(ctx, code)
	if err != nil {
		log.Error().Err(err).Str("provider", providerName).Msg("Code exchange failed")
		return a.redirectFailure(c, marker, reasonCallbackFailed)
	}

	info, err := provider.FetchUserInfo(ctx, token)
	if err != nil {
		log.Error().Err(err).Str("provider", providerName).Msg("Failed to fetch provider profile")
		return a.redirectFailure(c, marker, reasonCallbackFailed)
	}
	if info.Email == "" {
		log.Error().Str("provider", providerName).Str("cause", "profile_incomplete").
			Msg("Provider profile has no email, cannot map to an account")
		return a.redirectFailure(c, marker, reasonCallbackFailed)
	}

	userID, _, err := a.resolveAccountByEmail(ctx, info.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Str("provider", providerName).Str("email", info.Email).
				Msg("Provider email does not match any user or team member")
			return a.redirectFailure(c, marker, reasonEmailNotRecognized)
		}
		log.Error().Err(err).Str("provider", providerName).Msg("Account lookup failed")
		return a.redirectFailure(c, marker, reasonCallbackFailed)
	}

	record := &domain.OAuthTokenRecord{
		UserID:       userID,
		Provider:     providerName,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
		Scopes:       grantedScopes(token),
	}
	if err := a.tokens.Upsert(ctx, record); err != nil {
		log.Error().Err(err).Str("provider", providerName).Msg("Failed to persist provider tokens")
		return a.redirectFailure(c, marker, reasonCallbackFailed)
	}

	log.Info().Str("provider", providerName).Str("user_id", userID).Msg("Provider connected")
	return c.Redirect(http.StatusSeeOther,
		fmt.Sprintf("%s/my-tasks?%s=connected", a.cfg.ClientBaseURL, marker))
}

// googleCallbackAlias forwards legacy callback paths to the canonical route.
// 307 keeps the method and, via the location, the full query string.
func (a *API) googleCallbackAlias(c echo.Context) error {
	target := "/oauth/google/callback"
	if raw := c.Request().URL.RawQuery; raw != "" {
		target += "?" + raw
	}
	return c.Redirect(http.StatusTemporaryRedirect, target)
}

func (a *API) redirectFailure(c echo.Context, marker, reason string) error {
	q := url.Values{}
	q.Set(marker, "error")
	q.Set("reason", reason)
	return c.Redirect(http.StatusSeeOther,
		fmt.Sprintf("%s/my-tasks?%s", a.cfg.ClientBaseURL, q.Encode()))
}

// resolveAccountByEmail maps a provider email to an internal account.
// Users win over team members; a team member already linked to a user
// resolves to that user, otherwise the member record itself is the account.
func (a *API) resolveAccountByEmail(ctx context.Context, email string) (userID, teamMemberID string, err error) {
	user, err := a.users.GetUserByEmail(ctx, email)
	if err == nil {
		return user.ID, "", nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", "", err
	}

	member, err := a.team.GetTeamMemberByEmail(ctx, email)
	if err != nil {
		return "", "", err
	}
	if member.UserID != "" {
		return member.UserID, member.ID, nil
	}
	return member.ID, member.ID, nil
}

// grantedScopes extracts the scope list a provider reports on the token
// response, when it reports one at all. Google delimits with spaces,
// Facebook with commas; the stored form is space-delimited.
func grantedScopes(token *oauth2.Token) string {
	raw, _ := token.Extra("scope").(string)
	if raw == "" {
		return ""
	}
	return strings.Join(strings.Fields(strings.ReplaceAll(raw, ",", " ")), " ")
}

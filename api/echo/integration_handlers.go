package echo

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/covelight/agencydesk/domain"
	appmw "github.com/covelight/agencydesk/middleware"
	"github.com/covelight/agencydesk/services"
)

const defaultEventLimit = 10

// CalendarEvents lists upcoming events from the caller's connected Google
// Calendar.
func (a *API) CalendarEvents(c echo.Context) error {
	principal, ok := appmw.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}

	limit := defaultEventLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "limit must be between 1 and 100"})
		}
		limit = parsed
	}

	events, err := a.calendar.ListUpcomingEvents(c.Request().Context(), principal.UserID, limit)
	if err != nil {
		if errors.Is(err, services.ErrCalendarNotConnected) {
			return c.JSON(http.StatusConflict, echo.Map{"message": "Google Calendar is not connected"})
		}
		log.Error().Err(err).Str("user_id", principal.UserID).Msg("Calendar fetch failed")
		return c.JSON(http.StatusBadGateway, echo.Map{"message": "Failed to fetch calendar events"})
	}

	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// FacebookInsights returns campaign-level ad insights using the caller's
// stored Facebook token.
func (a *API) FacebookInsights(c echo.Context) error {
	principal, ok := appmw.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}

	ctx := c.Request().Context()

	record, err := a.tokens.GetByUserAndProvider(ctx, principal.UserID, domain.ProviderFacebook)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusConflict, echo.Map{"message": "Facebook Ads is not connected"})
		}
		log.Error().Err(err).Str("user_id", principal.UserID).Msg("Token lookup failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Internal server error"})
	}

	insights, err := a.ads.FetchCampaignInsights(ctx, record.AccessToken, a.cfg.FacebookAdAccountID)
	if err != nil {
		log.Error().Err(err).Str("user_id", principal.UserID).Msg("Insights fetch failed")
		return c.JSON(http.StatusBadGateway, echo.Map{"message": "Failed to fetch ad insights"})
	}

	return c.JSON(http.StatusOK, echo.Map{"insights": insights})
}

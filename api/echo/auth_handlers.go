package echo

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/covelight/agencydesk/domain"
	appmw "github.com/covelight/agencydesk/middleware"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Login verifies credentials, creates a session and sets the session cookie.
// Invalid email and invalid password are indistinguishable in the response.
func (a *API) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Email and password are required"})
	}

	ctx := c.Request().Context()

	user, err := a.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid email or password"})
		}
		log.Error().Err(err).Msg("User lookup failed during login")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Internal server error"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid email or password"})
	}

	sessionUser := domain.SessionUser{UserID: user.ID, Email: user.Email}
	if member, memberErr := a.team.GetTeamMemberByEmail(ctx, user.Email); memberErr == nil {
		sessionUser.TeamMemberID = member.ID
	}

	session, err := a.sessions.Create(ctx, sessionUser)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create session")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Internal server error"})
	}

	c.SetCookie(&http.Cookie{
		Name:     a.cfg.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((time.Duration(a.cfg.SessionTTLHours) * time.Hour).Seconds()),
	})

	return c.JSON(http.StatusOK, userResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  string(user.Role),
	})
}

// Logout deletes the server-side session and expires the cookie.
func (a *API) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(a.cfg.SessionCookieName); err == nil && cookie.Value != "" {
		if delErr := a.sessions.Delete(c.Request().Context(), cookie.Value); delErr != nil {
			log.Error().Err(delErr).Msg("Failed to delete session on logout")
		}
	}

	c.SetCookie(&http.Cookie{
		Name:     a.cfg.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	return c.NoContent(http.StatusNoContent)
}

// Me returns the identity the gate resolved for this request.
func (a *API) Me(c echo.Context) error {
	principal, ok := appmw.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"userId":       principal.UserID,
		"email":        principal.Email,
		"teamMemberId": principal.TeamMemberID,
		"source":       principal.Source,
	})
}

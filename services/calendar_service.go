package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/covelight/agencydesk/domain"
)

// CalendarEventsEndpoint is a variable so tests can point it at a mock server.
var CalendarEventsEndpoint = "https://www.googleapis.com/calendar/v3/calendars/primary/events"

// ErrCalendarNotConnected means the user has no stored Google token; they
// need to go through the connect flow first.
var ErrCalendarNotConnected = errors.New("google calendar is not connected for this user")

// TokenRefresher obtains a fresh access token from a stored refresh token.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// CalendarEvent is one upcoming event from the user's primary calendar.
type CalendarEvent struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Link    string `json:"link,omitempty"`
}

// CalendarService reads the user's Google Calendar using stored tokens,
// silently refreshing them when they get close to expiry.
type CalendarService struct {
	tokens     domain.OAuthTokenRepository
	google     TokenRefresher
	margin     time.Duration
	httpClient *http.Client
}

// NewCalendarService creates a CalendarService. margin is how close to
// expiry a stored access token may get before it is refreshed.
func NewCalendarService(tokens domain.OAuthTokenRepository, google TokenRefresher, margin time.Duration) *CalendarService {
	return &CalendarService{
		tokens:     tokens,
		google:     google,
		margin:     margin,
		httpClient: http.DefaultClient,
	}
}

// EnsureFreshToken returns the user's Google token record, refreshing and
// persisting it first when it is within the refresh margin of expiry. A
// failed refresh is surfaced to the caller; no retry is attempted.
func (s *CalendarService) EnsureFreshToken(ctx context.Context, userID string) (*domain.OAuthTokenRecord, error) {
	record, err := s.tokens.GetByUserAndProvider(ctx, userID, domain.ProviderGoogle)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrCalendarNotConnected
		}
		return nil, err
	}

	if time.Until(record.Expiry) > s.margin {
		return record, nil
	}

	if record.RefreshToken == "" {
		// Nothing to refresh with; hand back the stored token and let the
		// API call fail upstream, which sends the user back through consent.
		log.Warn().Str("user_id", userID).Msg("Google token near expiry with no refresh token stored")
		return record, nil
	}

	token, err := s.google.Refresh(ctx, record.RefreshToken)
	if err != nil {
		return nil, err
	}

	updated := &domain.OAuthTokenRecord{
		UserID:      userID,
		Provider:    domain.ProviderGoogle,
		AccessToken: token.AccessToken,
		// Providers rarely rotate refresh tokens on silent refresh; an
		// empty value here is preserved by the upsert.
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
		Scopes:       record.Scopes,
	}
	if err := s.tokens.Upsert(ctx, updated); err != nil {
		return nil, err
	}
	if updated.RefreshToken == "" {
		updated.RefreshToken = record.RefreshToken
	}
	return updated, nil
}

// ListUpcomingEvents fetches up to maxResults upcoming events from the
// user's primary calendar.
func (s *CalendarService) ListUpcomingEvents(ctx context.Context, userID string, maxResults int) ([]CalendarEvent, error) {
	record, err := s.EnsureFreshToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("maxResults", strconv.Itoa(maxResults))
	query.Set("singleEvents", "true")
	query.Set("orderBy", "startTime")
	query.Set("timeMin", time.Now().UTC().Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, CalendarEventsEndpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+record.AccessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to fetch calendar events: status %d, body: %s", resp.StatusCode, string(body))
	}

	var raw struct {
		Items []struct {
			ID       string `json:"id"`
			Summary  string `json:"summary"`
			HTMLLink string `json:"htmlLink"`
			Start    struct {
				DateTime string `json:"dateTime"`
				Date     string `json:"date"`
			} `json:"start"`
			End struct {
				DateTime string `json:"dateTime"`
				Date     string `json:"date"`
			} `json:"end"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode calendar events: %w", err)
	}

	events := make([]CalendarEvent, 0, len(raw.Items))
	for _, item := range raw.Items {
		start := item.Start.DateTime
		if start == "" {
			start = item.Start.Date // all-day event
		}
		end := item.End.DateTime
		if end == "" {
			end = item.End.Date
		}
		events = append(events, CalendarEvent{
			ID:      item.ID,
			Summary: item.Summary,
			Start:   start,
			End:     end,
			Link:    item.HTMLLink,
		})
	}
	return events, nil
}

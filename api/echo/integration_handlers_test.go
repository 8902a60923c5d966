package echo_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/covelight/agencydesk/domain"
	"github.com/covelight/agencydesk/internal/fbads"
	"github.com/covelight/agencydesk/services"
)

func TestCalendarEvents_NotConnected(t *testing.T) {
	h := newHarness(t)
	cookie := h.seedUser(t, "u1", "owner@agency.com", "pw")

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/events", nil)
	req.AddCookie(cookie)
	rec := h.do(req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "not connected")
}

func TestCalendarEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[{"id":"e1","summary":"Kickoff",
			"start":{"dateTime":"2026-09-01T10:00:00Z"},"end":{"dateTime":"2026-09-01T11:00:00Z"}}]}`)
	}))
	defer srv.Close()
	original := services.CalendarEventsEndpoint
	services.CalendarEventsEndpoint = srv.URL
	defer func() { services.CalendarEventsEndpoint = original }()

	h := newHarness(t)
	cookie := h.seedUser(t, "u1", "owner@agency.com", "pw")
	h.tokens.Upsert(context.Background(), &domain.OAuthTokenRecord{
		UserID:      "u1",
		Provider:    domain.ProviderGoogle,
		AccessToken: "g-access",
		Expiry:      time.Now().Add(30 * time.Minute),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/events", nil)
	req.AddCookie(cookie)
	rec := h.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Kickoff")
}

func TestCalendarEvents_BadLimit(t *testing.T) {
	h := newHarness(t)
	cookie := h.seedUser(t, "u1", "owner@agency.com", "pw")

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/events?limit=0", nil)
	req.AddCookie(cookie)
	rec := h.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFacebookInsights_NotConnected(t *testing.T) {
	h := newHarness(t)
	cookie := h.seedUser(t, "u1", "owner@agency.com", "pw")

	req := httptest.NewRequest(http.MethodGet, "/api/integrations/facebook/insights", nil)
	req.AddCookie(cookie)
	rec := h.do(req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestFacebookInsights(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/act_12345/insights", r.URL.Path)
		assert.Equal(t, "fb-access", r.URL.Query().Get("access_token"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[{"campaign_id":"c1","campaign_name":"Launch",
			"impressions":"100","clicks":"5","spend":"9.99"}]}`)
	}))
	defer srv.Close()
	original := fbads.GraphAPIBaseURL
	fbads.GraphAPIBaseURL = srv.URL
	defer func() { fbads.GraphAPIBaseURL = original }()

	h := newHarness(t)
	cookie := h.seedUser(t, "u1", "owner@agency.com", "pw")
	h.tokens.Upsert(context.Background(), &domain.OAuthTokenRecord{
		UserID:      "u1",
		Provider:    domain.ProviderFacebook,
		AccessToken: "fb-access",
		Expiry:      time.Now().Add(time.Hour),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/integrations/facebook/insights", nil)
	req.AddCookie(cookie)
	rec := h.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Launch")
}

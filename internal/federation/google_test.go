package federation_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	googleOAuth2 "golang.org/x/oauth2/google"

	"github.com/covelight/agencydesk/config"
	"github.com/covelight/agencydesk/internal/federation"
)

func googleClientConfig() config.OAuthClientConfig {
	return config.OAuthClientConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RedirectURL:  "http://localhost/oauth/google/callback",
		Scopes:       []string{"openid", "https://www.googleapis.com/auth/userinfo.email"},
	}
}

func TestNewGoogleProvider_Misconfigured(t *testing.T) {
	_, err := federation.NewGoogleProvider(config.OAuthClientConfig{}, 55*time.Minute)
	assert.ErrorIs(t, err, federation.ErrProviderMisconfigured)
}

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	provider, err := federation.NewGoogleProvider(googleClientConfig(), 55*time.Minute)
	require.NoError(t, err)

	raw := provider.AuthCodeURL("state-123")
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "state-123", parsed.Query().Get("state"))
	assert.Equal(t, "offline", parsed.Query().Get("access_type"))
	assert.Equal(t, "test-client-id", parsed.Query().Get("client_id"))
	assert.Equal(t, googleOAuth2.Endpoint.AuthURL, raw[:len(googleOAuth2.Endpoint.AuthURL)])
}

func TestGoogleProvider_FetchUserInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"sub": "1234567890",
			"name": "Test User",
			"email": "test.user@example.com",
			"email_verified": true
		}`))
	}))
	defer server.Close()

	original := federation.GoogleUserInfoEndpoint
	federation.GoogleUserInfoEndpoint = server.URL + "/oauth2/v3/userinfo"
	defer func() { federation.GoogleUserInfoEndpoint = original }()

	provider, err := federation.NewGoogleProvider(googleClientConfig(), 55*time.Minute)
	require.NoError(t, err)

	info, err := provider.FetchUserInfo(context.Background(), &oauth2.Token{AccessToken: "dummy"})
	require.NoError(t, err)

	assert.Equal(t, "1234567890", info.ProviderUserID)
	assert.Equal(t, "test.user@example.com", info.Email)
	assert.Equal(t, "Test User", info.Name)
}

func TestGoogleProvider_FetchUserInfo_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	original := federation.GoogleUserInfoEndpoint
	federation.GoogleUserInfoEndpoint = server.URL
	defer func() { federation.GoogleUserInfoEndpoint = original }()

	provider, err := federation.NewGoogleProvider(googleClientConfig(), 55*time.Minute)
	require.NoError(t, err)

	_, err = provider.FetchUserInfo(context.Background(), &oauth2.Token{AccessToken: "dummy"})
	require.Error(t, err)
	assert.ErrorIs(t, err, federation.ErrFetchUserInfoFailed)
}

func TestGoogleProvider_FetchUserInfo_EmptyEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub": "1234567890", "name": "No Email"}`))
	}))
	defer server.Close()

	original := federation.GoogleUserInfoEndpoint
	federation.GoogleUserInfoEndpoint = server.URL
	defer func() { federation.GoogleUserInfoEndpoint = original }()

	provider, err := federation.NewGoogleProvider(googleClientConfig(), 55*time.Minute)
	require.NoError(t, err)

	info, err := provider.FetchUserInfo(context.Background(), &oauth2.Token{AccessToken: "dummy"})
	require.NoError(t, err)
	assert.Empty(t, info.Email)
}

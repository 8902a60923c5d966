package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	googleOAuth2 "golang.org/x/oauth2/google"

	"github.com/covelight/agencydesk/config"
)

// GoogleUserInfoEndpoint is a variable so tests can point it at a mock server.
var GoogleUserInfoEndpoint = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleProvider implements the OAuth2Provider interface for Google.
type GoogleProvider struct {
	*BaseProvider
}

// NewGoogleProvider creates a GoogleProvider from the process-wide client
// credentials.
func NewGoogleProvider(cc config.OAuthClientConfig, fallbackTTL time.Duration) (*GoogleProvider, error) {
	if cc.ClientID == "" || cc.ClientSecret == "" {
		return nil, ErrProviderMisconfigured
	}
	return &GoogleProvider{
		BaseProvider: &BaseProvider{
			ProviderName: "google",
			Config: &oauth2.Config{
				ClientID:     cc.ClientID,
				ClientSecret: cc.ClientSecret,
				RedirectURL:  cc.RedirectURL,
				Scopes:       cc.Scopes,
				Endpoint:     googleOAuth2.Endpoint,
			},
			FallbackTTL: fallbackTTL,
		},
	}, nil
}

// AuthCodeURL requests offline access so Google issues a refresh token on
// first consent. Subsequent consents may omit it, which is why the token
// store preserves the stored refresh token on upsert.
func (g *GoogleProvider) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	opts = append(opts, oauth2.AccessTypeOffline)
	return g.BaseProvider.AuthCodeURL(state, opts...)
}

// FetchUserInfo fetches the Google profile for the token's owner.
func (g *GoogleProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*ExternalUserInfo, error) {
	client := g.HTTPClient(ctx, token)
	resp, err := client.Get(GoogleUserInfoEndpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchUserInfoFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d, body: %s", ErrFetchUserInfoFailed, resp.StatusCode, string(body))
	}

	var raw struct {
		Sub   string `json:"sub"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchUserInfoFailed, err)
	}

	return &ExternalUserInfo{
		ProviderUserID: raw.Sub,
		Email:          raw.Email,
		Name:           raw.Name,
	}, nil
}

var _ OAuth2Provider = (*GoogleProvider)(nil)

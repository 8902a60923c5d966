package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	facebookOAuth2 "golang.org/x/oauth2/facebook"

	"github.com/covelight/agencydesk/config"
)

// FacebookUserInfoEndpoint is a variable so tests can point it at a mock server.
var FacebookUserInfoEndpoint = "https://graph.facebook.com/me?fields=id,name,email"

// FacebookProvider implements the OAuth2Provider interface for Facebook.
// Facebook does not issue refresh tokens; its long-lived user tokens are
// stored as-is and re-consent replaces them.
type FacebookProvider struct {
	*BaseProvider
}

// NewFacebookProvider creates a FacebookProvider from the process-wide client
// credentials.
func NewFacebookProvider(cc config.OAuthClientConfig, fallbackTTL time.Duration) (*FacebookProvider, error) {
	if cc.ClientID == "" || cc.ClientSecret == "" {
		return nil, ErrProviderMisconfigured
	}
	return &FacebookProvider{
		BaseProvider: &BaseProvider{
			ProviderName: "facebook",
			Config: &oauth2.Config{
				ClientID:     cc.ClientID,
				ClientSecret: cc.ClientSecret,
				RedirectURL:  cc.RedirectURL,
				Scopes:       cc.Scopes,
				Endpoint:     facebookOAuth2.Endpoint,
			},
			FallbackTTL: fallbackTTL,
		},
	}, nil
}

// FetchUserInfo fetches the Graph API profile for the token's owner. Email
// may be absent when the user withheld the email permission.
func (f *FacebookProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*ExternalUserInfo, error) {
	client := f.HTTPClient(ctx, token)
	resp, err := client.Get(FacebookUserInfoEndpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchUserInfoFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d, body: %s", ErrFetchUserInfoFailed, resp.StatusCode, string(body))
	}

	var raw struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchUserInfoFailed, err)
	}

	return &ExternalUserInfo{
		ProviderUserID: raw.ID,
		Email:          raw.Email,
		Name:           raw.Name,
	}, nil
}

var _ OAuth2Provider = (*FacebookProvider)(nil)

package federation

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// ExternalUserInfo holds standardized user information retrieved from an
// external OAuth2 provider.
type ExternalUserInfo struct {
	ProviderUserID string // e.g. Google's 'sub', Facebook's numeric id
	Email          string // may be empty if the user withheld the email scope
	Name           string
}

// OAuth2Provider is the contract the HTTP layer and services depend on for
// talking to an external OAuth2 identity provider.
type OAuth2Provider interface {
	// Name returns the unique identifier for the provider ("google", "facebook").
	Name() string

	// AuthCodeURL generates the authorization URL the user is redirected to.
	// state is the CSRF binding value carried through the round trip.
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string

	// Exchange trades an authorization code for a token set. A provider
	// response without an explicit expiry gets the configured fallback TTL.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// Refresh obtains a fresh access token from a stored refresh token.
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)

	// FetchUserInfo uses an access token to retrieve the provider profile.
	FetchUserInfo(ctx context.Context, token *oauth2.Token) (*ExternalUserInfo, error)
}

// BaseProvider carries the oauth2 client configuration shared by all
// providers. Specific providers embed it and override FetchUserInfo.
type BaseProvider struct {
	ProviderName string
	Config       *oauth2.Config

	// FallbackTTL is applied when the provider omits expires_in on a token
	// response. No retry is attempted here on any failure; retry policy
	// belongs to the caller.
	FallbackTTL time.Duration
}

func (b *BaseProvider) Name() string { return b.ProviderName }

func (b *BaseProvider) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	return b.Config.AuthCodeURL(state, opts...)
}

func (b *BaseProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := b.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	return b.withFallbackExpiry(token), nil
}

func (b *BaseProvider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	source := b.Config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	return b.withFallbackExpiry(token), nil
}

func (b *BaseProvider) withFallbackExpiry(token *oauth2.Token) *oauth2.Token {
	if token.Expiry.IsZero() {
		token.Expiry = time.Now().Add(b.FallbackTTL)
	}
	return token
}

// HTTPClient returns a client that authenticates requests with the given token.
func (b *BaseProvider) HTTPClient(ctx context.Context, token *oauth2.Token) *http.Client {
	return b.Config.Client(ctx, token)
}

// FetchUserInfo must be overridden by each specific provider; the user info
// endpoint and response shape vary.
func (b *BaseProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*ExternalUserInfo, error) {
	return nil, fmt.Errorf("%w: no user info endpoint for provider %s", ErrProviderMisconfigured, b.ProviderName)
}

// GenerateAuthState generates a unique, unguessable string for the OAuth2
// state parameter.
func GenerateAuthState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}

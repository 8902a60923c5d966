package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// OAuthClientConfig holds the credentials for one external OAuth provider.
// It is loaded once at startup and treated as immutable input by the
// federation providers.
type OAuthClientConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// ServerConfig holds all configuration for the server.
type ServerConfig struct {
	HTTPPort    string `mapstructure:"HTTP_PORT"`
	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"`
	RedisPass   string `mapstructure:"REDIS_PASSWORD"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogPretty   bool   `mapstructure:"LOG_PRETTY"`

	// ClientBaseURL is the browser application origin; OAuth callbacks
	// redirect back into it.
	ClientBaseURL string `mapstructure:"CLIENT_BASE_URL"`

	SessionTTLHours   int    `mapstructure:"SESSION_TTL_HOURS"`
	SessionCookieName string `mapstructure:"SESSION_COOKIE_NAME"`

	// LegacyJWTSecret verifies bearer tokens issued by the previous auth
	// provider; the claims fallback path of identity resolution.
	LegacyJWTSecret string `mapstructure:"LEGACY_JWT_SECRET"`

	GoogleClientID       string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret   string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL    string `mapstructure:"GOOGLE_REDIRECT_URL"`
	FacebookClientID     string `mapstructure:"FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `mapstructure:"FACEBOOK_CLIENT_SECRET"`
	FacebookRedirectURL  string `mapstructure:"FACEBOOK_REDIRECT_URL"`
	FacebookAdAccountID  string `mapstructure:"FACEBOOK_AD_ACCOUNT_ID"`

	// DefaultTokenTTLMin is applied when a provider omits an explicit expiry
	// on exchanged tokens. The value is a skew assumption about the
	// provider's typical 60-minute lifetime, hence configurable.
	DefaultTokenTTLMin int `mapstructure:"DEFAULT_TOKEN_TTL_MIN"`

	// TokenRefreshMarginMin is how close to expiry a stored access token may
	// get before calendar sync refreshes it.
	TokenRefreshMarginMin int `mapstructure:"TOKEN_REFRESH_MARGIN_MIN"`
}

// GoogleOAuth assembles the Google client credentials with Calendar scopes.
func (c *ServerConfig) GoogleOAuth() OAuthClientConfig {
	return OAuthClientConfig{
		ClientID:     c.GoogleClientID,
		ClientSecret: c.GoogleClientSecret,
		RedirectURL:  c.GoogleRedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/calendar.readonly",
		},
	}
}

// FacebookOAuth assembles the Facebook client credentials with Ads scopes.
func (c *ServerConfig) FacebookOAuth() OAuthClientConfig {
	return OAuthClientConfig{
		ClientID:     c.FacebookClientID,
		ClientSecret: c.FacebookClientSecret,
		RedirectURL:  c.FacebookRedirectURL,
		Scopes:       []string{"email", "ads_read"},
	}
}

// LoadConfig reads configuration from file, environment variables, and defaults.
func LoadConfig() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/agencydesk/")
	v.AddConfigPath("$HOME/.agencydesk")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/agencydesk_dev")
	v.SetDefault("MONGO_DB_NAME", "agencydesk_dev")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("CLIENT_BASE_URL", "http://localhost:5173")
	v.SetDefault("SESSION_TTL_HOURS", 168) // 7 days
	v.SetDefault("SESSION_COOKIE_NAME", "adsk_session")
	v.SetDefault("DEFAULT_TOKEN_TTL_MIN", 55)
	v.SetDefault("TOKEN_REFRESH_MARGIN_MIN", 5)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, we fall back to env vars and
		// defaults. Anything else (malformed file, permissions) is fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &cfg, nil
}

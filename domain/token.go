package domain

import "time"

// OAuth provider names used as the Provider key of token records.
const (
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

// OAuthTokenRecord holds the provider tokens for one user and one provider.
// A user owns at most one record per provider.
//
// RefreshToken may be empty: many providers only return a refresh token on
// first consent. An upsert that carries an empty refresh token must preserve
// the previously stored one.
type OAuthTokenRecord struct {
	ID           string    `bson:"_id,omitempty"`
	UserID       string    `bson:"user_id"`
	Provider     string    `bson:"provider"`
	AccessToken  string    `bson:"access_token"`
	RefreshToken string    `bson:"refresh_token,omitempty"`
	Expiry       time.Time `bson:"expiry"`
	Scopes       string    `bson:"scopes,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

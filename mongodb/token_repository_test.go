package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/covelight/agencydesk/domain"
)

func TestBuildTokenUpsert_WithRefreshToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	record := &domain.OAuthTokenRecord{
		UserID:       "u1",
		Provider:     domain.ProviderGoogle,
		AccessToken:  "AT",
		RefreshToken: "RT",
		Expiry:       now.Add(55 * time.Minute),
		Scopes:       "openid email",
	}

	update := buildTokenUpsert(record, now)

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, "AT", set["access_token"])
	assert.Equal(t, "RT", set["refresh_token"])
	assert.Equal(t, "openid email", set["scopes"])
	assert.Equal(t, now, set["updated_at"])

	onInsert, ok := update["$setOnInsert"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, now, onInsert["created_at"])
}

func TestBuildTokenUpsert_OmitsEmptyRefreshToken(t *testing.T) {
	now := time.Now().UTC()
	record := &domain.OAuthTokenRecord{
		UserID:      "u1",
		Provider:    domain.ProviderGoogle,
		AccessToken: "AT2",
		Expiry:      now.Add(time.Hour),
	}

	update := buildTokenUpsert(record, now)

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, "AT2", set["access_token"])

	// A re-consent without a refresh token must not touch the stored one.
	_, present := set["refresh_token"]
	assert.False(t, present)
}

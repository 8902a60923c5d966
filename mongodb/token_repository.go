package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/covelight/agencydesk/domain"
)

// OAuthTokenRepositoryMongo implements domain.OAuthTokenRepository using MongoDB.
type OAuthTokenRepositoryMongo struct {
	collection *mongo.Collection
}

// NewOAuthTokenRepositoryMongo creates the repository and ensures the unique
// (user_id, provider) index exists.
func NewOAuthTokenRepositoryMongo(ctx context.Context, db *mongo.Database) (domain.OAuthTokenRepository, error) {
	repo := &OAuthTokenRepositoryMongo{
		collection: db.Collection(OAuthTokensCollection),
	}

	indexModels := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "provider", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := repo.collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		log.Warn().Err(err).Msg("Issue creating indexes for oauth_tokens collection (might already exist)")
	}

	return repo, nil
}

// buildTokenUpsert builds the single conditional update document for Upsert.
//
// An empty RefreshToken must not clobber a stored one: providers only return
// a refresh token on first consent. Omitting the field from $set keeps the
// stored value on update and leaves it absent on insert, all within one
// atomic statement, so concurrent re-authorizations from multiple tabs
// cannot lose it to a read-then-write race.
func buildTokenUpsert(record *domain.OAuthTokenRecord, now time.Time) bson.M {
	set := bson.M{
		"access_token": record.AccessToken,
		"expiry":       record.Expiry,
		"scopes":       record.Scopes,
		"updated_at":   now,
	}
	if record.RefreshToken != "" {
		set["refresh_token"] = record.RefreshToken
	}
	return bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": now},
	}
}

// Upsert inserts or updates the token record keyed by (user_id, provider).
func (r *OAuthTokenRepositoryMongo) Upsert(ctx context.Context, record *domain.OAuthTokenRecord) error {
	now := time.Now().UTC()
	filter := bson.M{"user_id": record.UserID, "provider": record.Provider}

	_, err := r.collection.UpdateOne(ctx, filter, buildTokenUpsert(record, now),
		options.UpdateOne().SetUpsert(true))
	if err != nil {
		log.Error().Err(err).
			Str("user_id", record.UserID).
			Str("provider", record.Provider).
			Msg("Error upserting oauth token record")
		return err
	}
	return nil
}

func (r *OAuthTokenRepositoryMongo) GetByUserAndProvider(ctx context.Context, userID, provider string) (*domain.OAuthTokenRecord, error) {
	var record domain.OAuthTokenRecord
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID, "provider": provider}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		log.Error().Err(err).Str("user_id", userID).Str("provider", provider).Msg("Error getting oauth token record")
		return nil, err
	}
	return &record, nil
}

// Delete removes the token record; tokens are never implicitly destroyed, so
// this is the explicit revocation path.
func (r *OAuthTokenRepositoryMongo) Delete(ctx context.Context, userID, provider string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "provider": provider})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("provider", provider).Msg("Error deleting oauth token record")
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.OAuthTokenRepository = (*OAuthTokenRepositoryMongo)(nil)

package mongodb

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/covelight/agencydesk/domain"
)

// TeamMemberRepositoryMongo implements domain.TeamMemberRepository using MongoDB.
type TeamMemberRepositoryMongo struct {
	collection *mongo.Collection
}

// NewTeamMemberRepositoryMongo creates the repository and ensures the unique
// email index exists.
func NewTeamMemberRepositoryMongo(ctx context.Context, db *mongo.Database) (domain.TeamMemberRepository, error) {
	repo := &TeamMemberRepositoryMongo{
		collection: db.Collection(TeamMembersCollection),
	}

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := repo.collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		log.Warn().Err(err).Msg("Issue creating indexes for team_members collection (might already exist)")
	}

	return repo, nil
}

// CreateTeamMember inserts a new invited member. Emails are stored lowercased.
func (r *TeamMemberRepositoryMongo) CreateTeamMember(ctx context.Context, member *domain.TeamMember) error {
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	member.Email = strings.ToLower(member.Email)
	if member.InvitedAt.IsZero() {
		member.InvitedAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, member); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.New("team member with this email already exists")
		}
		log.Error().Err(err).Msg("Error inserting team member")
		return err
	}
	return nil
}

func (r *TeamMemberRepositoryMongo) GetTeamMemberByEmail(ctx context.Context, email string) (*domain.TeamMember, error) {
	var member domain.TeamMember
	err := r.collection.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&member)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		log.Error().Err(err).Msg("Error getting team member by email")
		return nil, err
	}
	return &member, nil
}

var _ domain.TeamMemberRepository = (*TeamMemberRepositoryMongo)(nil)

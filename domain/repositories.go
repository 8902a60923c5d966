package domain

import (
	"context"
	"errors"
)

// ErrNotFound is returned by repositories and stores when a record does not
// exist. Callers distinguish it from infrastructure failures with errors.Is.
var ErrNotFound = errors.New("not found")

// UserRepository is the primary user directory.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// TeamMemberRepository is the secondary directory of invited team members.
type TeamMemberRepository interface {
	CreateTeamMember(ctx context.Context, member *TeamMember) error
	GetTeamMemberByEmail(ctx context.Context, email string) (*TeamMember, error)
}

// OAuthTokenRepository persists per-user provider tokens. Upsert must be a
// single conditional statement keyed on (user_id, provider) so that
// concurrent re-authorizations by the same user cannot lose a stored refresh
// token to a read-then-write race.
type OAuthTokenRepository interface {
	Upsert(ctx context.Context, record *OAuthTokenRecord) error
	GetByUserAndProvider(ctx context.Context, userID, provider string) (*OAuthTokenRecord, error)
	Delete(ctx context.Context, userID, provider string) error
}

// SessionStore holds server-side session records. Implementations own the
// expiry policy; Get must return ErrNotFound for expired or unknown sessions.
type SessionStore interface {
	Create(ctx context.Context, user SessionUser) (*SessionRecord, error)
	Get(ctx context.Context, id string) (*SessionRecord, error)
	Delete(ctx context.Context, id string) error
}

package domain

import "time"

// UserRole defines the possible roles of an account.
type UserRole string

const (
	UserRoleAdmin  UserRole = "ADMIN"
	UserRoleClient UserRole = "CLIENT"
)

// User represents a full account holder: an agency administrator or a client
// contact who can sign in with a password.
type User struct {
	ID           string    `bson:"_id,omitempty"`
	Email        string    `bson:"email,unique"`
	PasswordHash string    `bson:"password_hash"`
	Name         string    `bson:"name,omitempty"`
	Role         UserRole  `bson:"role"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// TeamMember is an invited member of the agency team. Members exist in this
// secondary directory before (or without ever) becoming full account holders;
// UserID is set once the invitation is accepted.
type TeamMember struct {
	ID        string    `bson:"_id,omitempty"`
	Email     string    `bson:"email,unique"`
	Name      string    `bson:"name,omitempty"`
	UserID    string    `bson:"user_id,omitempty"`
	InvitedAt time.Time `bson:"invited_at"`
}

package domain

import "time"

// SessionUser is the identity snapshot held inside a session record.
type SessionUser struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	TeamMemberID string `json:"teamMemberId,omitempty"`
}

// SessionRecord is server-side state keyed by a session identifier. It is
// created at login, read on every request, and destroyed at logout; the
// backing store's TTL governs expiry.
type SessionRecord struct {
	ID        string      `json:"id"`
	User      SessionUser `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
}

package domain

// IdentitySource records which resolution path produced a Principal.
type IdentitySource string

const (
	IdentitySourceSession IdentitySource = "session"
	IdentitySourceClaims  IdentitySource = "claims"
)

// Principal is the resolved identity for a request. A Principal is either
// fully resolved or absent (nil); no partial principals are passed downstream.
type Principal struct {
	UserID       string         `json:"userId"`
	Email        string         `json:"email"`
	TeamMemberID string         `json:"teamMemberId,omitempty"`
	Source       IdentitySource `json:"-"`
}

// ClaimsIdentity is the alternate identity representation supplied by the
// legacy bearer-token auth provider. It is consulted only when no session
// record exists, and is read-only from this subsystem's perspective.
type ClaimsIdentity struct {
	Subject string
	Email   string
}

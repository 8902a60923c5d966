// Package identity resolves the authenticated principal for a request from
// its session state, falling back to a legacy claims-based identity.
package identity

import "github.com/covelight/agencydesk/domain"

// Resolve determines the authenticated principal from the two identity
// sources attached to a request. It is a pure function of its inputs: no
// side effects, no retries.
//
// A session record wins unconditionally. Without one, a claims identity with
// a non-empty subject yields a principal whose email is the claims email or
// "" when the provider omitted it. With neither, there is no principal.
func Resolve(sess *domain.SessionRecord, claims *domain.ClaimsIdentity) *domain.Principal {
	if sess != nil {
		return &domain.Principal{
			UserID:       sess.User.UserID,
			Email:        sess.User.Email,
			TeamMemberID: sess.User.TeamMemberID,
			Source:       domain.IdentitySourceSession,
		}
	}

	if claims != nil && claims.Subject != "" {
		return &domain.Principal{
			UserID: claims.Subject,
			Email:  claims.Email,
			Source: domain.IdentitySourceClaims,
		}
	}

	return nil
}

package identity

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/covelight/agencydesk/domain"
)

// ParseBearerClaims extracts a ClaimsIdentity from an Authorization header
// value carrying a legacy HMAC-signed bearer token. It returns nil for a
// missing, malformed, or invalid token; the caller (the auth gate) decides
// whether that matters. The email claim is optional.
func ParseBearerClaims(authHeader string, secret []byte) *domain.ClaimsIdentity {
	if authHeader == "" || len(secret) == 0 {
		return nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil
	}
	email, _ := claims["email"].(string)

	return &domain.ClaimsIdentity{Subject: sub, Email: email}
}

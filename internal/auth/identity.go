package auth

import "time"

// Identity is what the auth middleware attaches to a verified request.
type Identity struct {
	TokenPayload
	TokenID   string
	ExpiresAt time.Time
}

// IdentityFromClaims flattens verified claims into an Identity.
func IdentityFromClaims(c *Claims) Identity {
	id := Identity{TokenPayload: c.TokenPayload, TokenID: c.ID}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id
}

package types

import (
	"strings"
	"time"
)

// Role is a coarse permission tag attached to a user and embedded in issued
// tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole returns the role named by s. Matching is case-insensitive.
func ParseRole(s string) (Role, bool) {
	switch {
	case strings.EqualFold(strings.TrimSpace(s), string(RoleUser)):
		return RoleUser, true
	case strings.EqualFold(strings.TrimSpace(s), string(RoleAdmin)):
		return RoleAdmin, true
	default:
		return "", false
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a storefront account.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the opaque unique identifier assigned by the store.
	ID string `json:"id" db:"id"`

	// Name is the user's display name.
	Name string `json:"name" db:"name"`

	// Email is the unique login key. It is compared exactly as stored.
	Email string `json:"email" db:"email"`

	// Role is either "user" or "admin".
	Role Role `json:"role" db:"role"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

package auth

// Package auth contains domain-level types for credentials, tokens and roles.
// It is pure and free of framework/adapter concerns.

import (
	"fmt"
	"strings"
	"time"
)

// Role represents an application's authorization role.
// Keep string form for easy persistence and token claims.
// Valid values are defined as constants below; anything else is rejected by ParseRole.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// String implements fmt.Stringer.
func (r Role) String() string { return string(r) }

// ParseRole converts raw input into a Role. Empty input yields RoleUser.
func ParseRole(raw string) (Role, error) {
	v := Role(strings.ToLower(strings.TrimSpace(raw)))
	if v == "" {
		return RoleUser, nil
	}
	if !v.Valid() {
		return "", fmt.Errorf("role must be one of: %s, %s", RoleUser, RoleAdmin)
	}
	return v, nil
}

// UnmarshalText implements encoding.TextUnmarshaler so unknown roles fail at the boundary.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Credential is the stored (salt, hash) pair derived from a password.
// Both fields are hex strings and are always set together.
type Credential struct {
	Salt string
	Hash string
}

// Empty reports whether either half of the credential is missing.
func (c Credential) Empty() bool {
	return c.Salt == "" || c.Hash == ""
}

// Claims is the verified content of an identity token.
type Claims struct {
	UserID    string
	Role      Role
	ExpiresAt time.Time
}

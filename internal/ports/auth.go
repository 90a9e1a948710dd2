package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/target/creditfeed/internal/domain/auth"
)

// PasswordHasher derives and checks stored credentials.
type PasswordHasher interface {
	// Hash derives a fresh (salt, hash) pair for the password.
	Hash(password string) (domainauth.Credential, error)

	// Verify reports whether the password matches the credential.
	// It never errors: malformed credentials simply do not match.
	Verify(password string, cred domainauth.Credential) bool
}

// TokenService issues and verifies signed identity tokens.
type TokenService interface {
	Issue(userID string, role domainauth.Role) (string, error)
	Verify(token string) (domainauth.Claims, error)
}

// LoginThrottle tracks failed logins per key (normalized email) and locks out repeat offenders.
type LoginThrottle interface {
	// Allowed reports whether another attempt may be made for key.
	Allowed(ctx context.Context, key string) (bool, error)
	// RecordFailure counts a failed attempt for key.
	RecordFailure(ctx context.Context, key string) error
	// Reset clears the failure count for key.
	Reset(ctx context.Context, key string) error
}

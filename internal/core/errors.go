package core

import "errors"

// Sentinel errors every repository implementation reports, so services can branch on them
// without depending on a storage package.
var (
	// ErrUserNotFound is returned when no user matches the id or email, including malformed ids.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserEmailExists is returned when creating a user whose email is already registered.
	ErrUserEmailExists = errors.New("user email already exists")
)

//revive:disable-next-line:var-naming // legacy package name used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/target/creditfeed/internal/domain/auth"
)

const (
	maxUsernameLen = 100
	maxEmailLen    = 320
)

// User is the public projection of an identity. It carries no credential fields,
// so any value of this type is safe to serialize.
type User struct {
	ID        string    `json:"id"        db:"id"`
	Username  string    `json:"username"  db:"username"`
	Email     string    `json:"email"     db:"email"`
	Role      auth.Role `json:"role"      db:"role"`
	Credits   int64     `json:"credits"   db:"credits"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// PublicUser is the short form returned alongside a freshly minted token.
type PublicUser struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     auth.Role `json:"role"`
}

// Public returns the token-response projection of u.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

// UserCredentials is returned only by the login lookup. The credential is never serialized.
type UserCredentials struct {
	User
	Credential auth.Credential `json:"-"`
}

// CreateUserRequest contains the fields persisted for a new identity.
type CreateUserRequest struct {
	Username   string
	Email      string
	Role       auth.Role
	Credential auth.Credential
	Credits    int64
}

// Validate checks the request before it reaches storage.
func (r *CreateUserRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return errors.New("username is required and cannot be empty")
	}
	if utf8.RuneCountInString(r.Username) > maxUsernameLen {
		return errors.New("username cannot exceed 100 characters")
	}
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	if !r.Role.Valid() {
		return errors.New("role must be one of: user, admin")
	}
	if r.Credential.Empty() {
		return errors.New("credential is required and cannot be empty")
	}
	if r.Credits < 0 {
		return errors.New("credits must be non-negative")
	}
	return nil
}

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail performs a light structural check on an email address.
func ValidateEmail(email string) error {
	e := strings.TrimSpace(email)
	if e == "" {
		return errors.New("email is required and cannot be empty")
	}
	if utf8.RuneCountInString(e) > maxEmailLen {
		return errors.New("email cannot exceed 320 characters")
	}
	at := strings.LastIndex(e, "@")
	if at < 1 || at == len(e)-1 || strings.ContainsAny(e, " \t\r\n") {
		return errors.New("email must be a valid address")
	}
	return nil
}

// Dashboard aggregates the data shown to a signed-in user.
type Dashboard struct {
	Username   string       `json:"username"`
	Email      string       `json:"email"`
	Role       auth.Role    `json:"role"`
	Credits    int64        `json:"credits"`
	SavedPosts []SavedPost  `json:"savedPosts"`
	Reports    []UserReport `json:"reports"`
}

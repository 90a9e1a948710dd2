// Package passhash provides the PBKDF2 credential hasher used for stored passwords.
package passhash

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	domainauth "github.com/target/creditfeed/internal/domain/auth"
	"github.com/target/creditfeed/internal/ports"
)

// Defaults match hashes already stored by earlier deployments.
const (
	DefaultIterations = 1000
	DefaultKeyLen     = 64
	saltLen           = 16
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = errors.New("password cannot be empty")

var _ ports.PasswordHasher = (*Hasher)(nil)

// Options configures a Hasher. Zero values fall back to the defaults.
type Options struct {
	Iterations int
	KeyLen     int
}

// Hasher derives credentials with PBKDF2-HMAC-SHA512.
// The hex-encoded salt string (not its decoded bytes) is fed to the KDF.
type Hasher struct {
	iterations int
	keyLen     int
}

// New constructs a Hasher.
func New(opts Options) *Hasher {
	h := &Hasher{iterations: opts.Iterations, keyLen: opts.KeyLen}
	if h.iterations <= 0 {
		h.iterations = DefaultIterations
	}
	if h.keyLen <= 0 {
		h.keyLen = DefaultKeyLen
	}
	return h
}

// Hash generates a random salt and derives the hash for password.
func (h *Hasher) Hash(password string) (domainauth.Credential, error) {
	if password == "" {
		return domainauth.Credential{}, ErrEmptyPassword
	}

	raw := make([]byte, saltLen)
	if _, err := rand.Read(raw); err != nil {
		return domainauth.Credential{}, fmt.Errorf("generate salt: %w", err)
	}
	salt := hex.EncodeToString(raw)

	return domainauth.Credential{
		Salt: salt,
		Hash: hex.EncodeToString(h.derive(password, salt)),
	}, nil
}

// Verify recomputes the derivation and compares in constant time.
func (h *Hasher) Verify(password string, cred domainauth.Credential) bool {
	if cred.Empty() {
		return false
	}
	expected, err := hex.DecodeString(cred.Hash)
	if err != nil {
		return false
	}
	// A stored hash of any other length never matches.
	return subtle.ConstantTimeCompare(h.derive(password, cred.Salt), expected) == 1
}

func (h *Hasher) derive(password, salt string) []byte {
	return pbkdf2.Key([]byte(password), []byte(salt), h.iterations, h.keyLen, sha512.New)
}

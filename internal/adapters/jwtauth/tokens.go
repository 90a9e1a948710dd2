// Package jwtauth implements the identity token service with HS256-signed JWTs.
package jwtauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/target/creditfeed/internal/domain/auth"
	"github.com/target/creditfeed/internal/ports"
)

// DefaultTTL is the lifetime of an issued token.
const DefaultTTL = 7 * 24 * time.Hour

var (
	// ErrTokenInvalid covers malformed tokens, bad signatures and unusable claims.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrSecretRequired is returned by New when no signing secret is configured.
	ErrSecretRequired = errors.New("token signing secret is required")
)

var _ ports.TokenService = (*Service)(nil)

// claims is the wire form of the token payload.
type claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Options configures a Service.
type Options struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	// Now overrides the clock (tests).
	Now func() time.Time
}

// Service signs and verifies tokens with a process-wide secret.
type Service struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// New constructs a Service. The secret is copied and never exposed again.
func New(opts Options) (*Service, error) {
	if len(opts.Secret) == 0 {
		return nil, ErrSecretRequired
	}
	s := &Service{
		secret: append([]byte(nil), opts.Secret...),
		ttl:    opts.TTL,
		issuer: opts.Issuer,
		now:    opts.Now,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Issue signs a token for the subject and role, valid for the configured TTL.
func (s *Service) Issue(userID string, role domainauth.Role) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", role)
	}

	now := s.now()
	c := claims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks structure, signature and expiry, returning the embedded claims.
func (s *Service) Verify(token string) (domainauth.Claims, error) {
	if token == "" {
		return domainauth.Claims{}, ErrTokenInvalid
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(s.issuer))
	}

	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domainauth.Claims{}, ErrTokenExpired
		}
		return domainauth.Claims{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	role := domainauth.Role(c.Role)
	if c.UserID == "" || !role.Valid() {
		return domainauth.Claims{}, ErrTokenInvalid
	}

	return domainauth.Claims{
		UserID:    c.UserID,
		Role:      role,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	domainauth "github.com/target/creditfeed/internal/domain/auth"
	"github.com/target/creditfeed/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.PasswordHasher = (*PlainHasher)(nil)
	_ ports.TokenService   = (*StaticTokenService)(nil)
	_ ports.LoginThrottle  = (*MemoryLoginThrottle)(nil)
)

// ErrInvalidToken is returned by StaticTokenService for unknown tokens.
var ErrInvalidToken = errors.New("invalid token")

// PlainHasher stores passwords in the clear behind a counter salt. It keeps unit tests fast
// and makes stored credentials easy to assert on.
type PlainHasher struct {
	HashErr error
	n       atomic.Int64
	checks  atomic.Int64
}

// Hash returns a credential whose hash is the password itself.
func (h *PlainHasher) Hash(password string) (domainauth.Credential, error) {
	if h.HashErr != nil {
		return domainauth.Credential{}, h.HashErr
	}
	if password == "" {
		return domainauth.Credential{}, errors.New("password is required")
	}
	return domainauth.Credential{
		Salt: fmt.Sprintf("salt-%d", h.n.Add(1)),
		Hash: "plain:" + password,
	}, nil
}

// Verify compares the password against the stored plain hash.
func (h *PlainHasher) Verify(password string, cred domainauth.Credential) bool {
	h.checks.Add(1)
	return cred.Salt != "" && cred.Hash == "plain:"+password
}

// Verifications reports how many times Verify ran.
func (h *PlainHasher) Verifications() int64 { return h.checks.Load() }

// StaticTokenService issues opaque tokens and remembers their claims.
type StaticTokenService struct {
	// TTL applied to issued tokens; defaults to one hour.
	TTL time.Duration
	// IssueErr forces Issue to fail.
	IssueErr error

	mu     sync.Mutex
	n      int
	tokens map[string]domainauth.Claims
}

// NewStaticTokenService creates an empty StaticTokenService.
func NewStaticTokenService() *StaticTokenService {
	return &StaticTokenService{TTL: time.Hour, tokens: make(map[string]domainauth.Claims)}
}

// Issue mints "token-<n>" bound to the subject and role.
func (s *StaticTokenService) Issue(userID string, role domainauth.Role) (string, error) {
	if s.IssueErr != nil {
		return "", s.IssueErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		s.tokens = make(map[string]domainauth.Claims)
	}
	s.n++
	tok := fmt.Sprintf("token-%d", s.n)
	s.tokens[tok] = domainauth.Claims{UserID: userID, Role: role, ExpiresAt: time.Now().Add(s.ttl())}
	return tok, nil
}

// Put registers claims for an arbitrary token string.
func (s *StaticTokenService) Put(token string, claims domainauth.Claims) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		s.tokens = make(map[string]domainauth.Claims)
	}
	s.tokens[token] = claims
}

// Verify returns the claims of a known, unexpired token.
func (s *StaticTokenService) Verify(token string) (domainauth.Claims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.tokens[strings.TrimSpace(token)]
	if !ok || (!c.ExpiresAt.IsZero() && time.Now().After(c.ExpiresAt)) {
		return domainauth.Claims{}, ErrInvalidToken
	}
	return c, nil
}

func (s *StaticTokenService) ttl() time.Duration {
	if s.TTL <= 0 {
		return time.Hour
	}
	return s.TTL
}

// MemoryLoginThrottle counts failures per key without expiry.
type MemoryLoginThrottle struct {
	MaxFailures int
	// Err forces every call to fail.
	Err error

	mu       sync.Mutex
	failures map[string]int
}

// NewMemoryLoginThrottle locks a key after max failures.
func NewMemoryLoginThrottle(maxFailures int) *MemoryLoginThrottle {
	return &MemoryLoginThrottle{MaxFailures: maxFailures, failures: make(map[string]int)}
}

func (m *MemoryLoginThrottle) Allowed(_ context.Context, key string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.MaxFailures <= 0 || m.failures[key] < m.MaxFailures, nil
}

func (m *MemoryLoginThrottle) RecordFailure(_ context.Context, key string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures == nil {
		m.failures = make(map[string]int)
	}
	m.failures[key]++
	return nil
}

func (m *MemoryLoginThrottle) Reset(_ context.Context, key string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failures, key)
	return nil
}

// Failures returns the current count for key.
func (m *MemoryLoginThrottle) Failures(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[key]
}

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/creditfeed/internal/domain/auth"
)

func TestPlainHasher(t *testing.T) {
	h := &PlainHasher{}

	c1, err := h.Hash("pw")
	require.NoError(t, err)
	c2, err := h.Hash("pw")
	require.NoError(t, err)
	assert.NotEqual(t, c1.Salt, c2.Salt)

	assert.True(t, h.Verify("pw", c1))
	assert.False(t, h.Verify("other", c1))
	assert.False(t, h.Verify("pw", domainauth.Credential{Hash: c1.Hash}))

	_, err = h.Hash("")
	require.Error(t, err)

	h.HashErr = errors.New("boom")
	_, err = h.Hash("pw")
	require.EqualError(t, err, "boom")
}

func TestStaticTokenService(t *testing.T) {
	s := NewStaticTokenService()

	tok, err := s.Issue("u1", domainauth.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)

	c, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UserID)
	assert.Equal(t, domainauth.RoleAdmin, c.Role)

	_, err = s.Verify("nope")
	require.ErrorIs(t, err, ErrInvalidToken)

	s.Put("expired", domainauth.Claims{UserID: "u1", Role: domainauth.RoleUser, ExpiresAt: time.Now().Add(-time.Minute)})
	_, err = s.Verify("expired")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMemoryLoginThrottle(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLoginThrottle(2)

	require.NoError(t, m.RecordFailure(ctx, "k"))
	ok, err := m.Allowed(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.RecordFailure(ctx, "k"))
	ok, err = m.Allowed(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, m.Failures("k"))

	require.NoError(t, m.Reset(ctx, "k"))
	ok, err = m.Allowed(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	disabled := NewMemoryLoginThrottle(0)
	require.NoError(t, disabled.RecordFailure(ctx, "k"))
	ok, err = disabled.Allowed(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

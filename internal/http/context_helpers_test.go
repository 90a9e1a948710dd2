package httpx

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/target/creditfeed/internal/domain/auth"
	"github.com/target/creditfeed/internal/domain/model"
)

func TestUserFromContext(t *testing.T) {
	// No user
	if u, ok := UserFromContext(context.Background()); assert.False(t, ok) {
		assert.Nil(t, u)
	}

	// Nil user leaves the context untouched
	ctx := WithUser(context.Background(), nil)
	_, ok := UserFromContext(ctx)
	assert.False(t, ok)

	// With user
	user := &model.User{ID: "abc", Role: domainauth.RoleUser}
	u, ok := UserFromContext(WithUser(context.Background(), user))
	assert.True(t, ok)
	assert.Same(t, user, u)
}

func TestLoggerFrom(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	assert.Same(t, slog.Default(), loggerFrom(r))

	logger := slog.New(slog.DiscardHandler)
	r = r.WithContext(WithLogger(r.Context(), logger))
	assert.Same(t, logger, loggerFrom(r))
}

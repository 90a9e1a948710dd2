package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/target/creditfeed/internal/domain/model"
)

// userKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type userKey struct{}

// WithUser returns a child context that carries the authenticated user.
// If user is nil, the original ctx is returned unchanged.
func WithUser(ctx context.Context, user *model.User) context.Context {
	if user == nil {
		return ctx
	}
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the authenticated user and a boolean indicating presence.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	if u, ok := ctx.Value(userKey{}).(*model.User); ok && u != nil {
		return u, true
	}
	return nil, false
}

type loggerKey struct{}

// WithLogger returns a child context carrying the request-scoped logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// loggerFrom returns the logger installed by Logging, or slog.Default.
func loggerFrom(r *http.Request) *slog.Logger {
	if l, ok := r.Context().Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

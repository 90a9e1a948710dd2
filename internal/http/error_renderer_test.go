package httpx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/creditfeed/internal/errors"
)

func TestDetermineErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		errCode string
	}{
		{"validation", apperrors.Validation("bad"), http.StatusBadRequest, "validation_failed"},
		{"unauthorized", apperrors.Unauthorized("no"), http.StatusUnauthorized, "unauthorized"},
		{"forbidden", apperrors.New(apperrors.ErrCodeForbidden, "no"), http.StatusForbidden, "forbidden"},
		{"not found", apperrors.NotFound("gone"), http.StatusNotFound, "not_found"},
		{"conflict", apperrors.Conflict("dup"), http.StatusConflict, "conflict"},
		{"foreign key", apperrors.New(apperrors.ErrCodeForeignKey, "in use"), http.StatusConflict, "conflict"},
		{"rate limited", apperrors.New(apperrors.ErrCodeRateLimited, "slow down"), http.StatusTooManyRequests, "too_many_attempts"},
		{"timeout", apperrors.New(apperrors.ErrCodeTimeout, "slow"), http.StatusGatewayTimeout, "timeout"},
		{"wrapped app error", fmt.Errorf("outer: %w", apperrors.NotFound("gone")), http.StatusNotFound, "not_found"},
		{"raw fk violation", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, http.StatusConflict, "conflict"},
		{"raw other pg error", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, http.StatusInternalServerError, "internal_error"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, errCode := DetermineErrorStatus(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.errCode, errCode)
		})
	}
}

func TestRenderError_ClientErrorUsesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)

	RenderError(rec, r, apperrors.Wrap(errors.New("driver detail"), apperrors.ErrCodeNotFound, "User not found"))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not_found","message":"User not found"}`, rec.Body.String())
}

func TestRenderError_ServerErrorIsGeneric(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	r = r.WithContext(WithLogger(context.Background(), logger))

	RenderError(rec, r, errors.New("dial tcp 10.0.0.1:5432: connection refused"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal_error","message":"Server error"}`, rec.Body.String())
	assert.Contains(t, logs.String(), "connection refused")
	assert.Contains(t, logs.String(), "path=/test")
}

package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/target/creditfeed/internal/errors"
)

type sampleError struct{}

func (*sampleError) Error() string { return "sample" }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "concrete type", err: &sampleError{}, want: "errors_sampleerror"},
		{name: "wrapped type", err: fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", &sampleError{})), want: "errors_sampleerror"},
		{name: "plain", err: goerrors.New("plain"), want: "errors_errorstring"},
		{name: "deadline", err: fmt.Errorf("query: %w", context.DeadlineExceeded), want: "timeout"},
		{name: "canceled", err: context.Canceled, want: "canceled"},
		{name: "postgres", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), want: "pg_23505"},
		{name: "mapped postgres keeps sqlstate", err: apperrors.MapDBError(&pgconn.PgError{Code: "23503"}), want: "pg_23503"},
		{name: "app error", err: apperrors.Validation("bad"), want: "app_validation"},
		{name: "wrapped app error", err: fmt.Errorf("svc: %w", apperrors.NotFound("gone")), want: "app_not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

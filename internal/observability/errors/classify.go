// Package errors turns arbitrary errors into low-cardinality labels for metrics and logs.
package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/target/creditfeed/internal/errors"
)

// Classify returns a label for err. Known shapes win in this order: context expiry,
// a PostgreSQL error (by SQLSTATE), an AppError (by code). Anything else is labeled with
// the snake_cased type name of the innermost wrapped error.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case goerrors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case goerrors.Is(err, context.Canceled):
		return "canceled"
	}

	var pgErr *pgconn.PgError
	if goerrors.As(err, &pgErr) {
		return "pg_" + pgErr.Code
	}

	var appErr *apperrors.AppError
	if goerrors.As(err, &appErr) {
		return "app_" + string(appErr.Code)
	}

	return typeName(innermost(err))
}

func innermost(err error) error {
	for {
		next := goerrors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func typeName(err error) string {
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.String() == "" {
		return "unknown"
	}
	return strings.ReplaceAll(strings.ToLower(t.String()), ".", "_")
}

package errors

import (
	"context"
	"database/sql"
	"errors"
	"regexp"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// reDetailKey pulls the column list out of a constraint detail such as
// `Key (email)=(a@x.com) already exists.` or `Key (user_id)=(...) is not present in table "users".`
var reDetailKey = regexp.MustCompile(`Key \(([^)]+)\)=`)

// MapDBError classifies a storage error as an AppError so repositories can branch on the
// code instead of on driver types. The original error stays reachable through Unwrap.
// Errors that are not database errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrCodeTimeout, "Request timed out. Please try again.")
	case errors.Is(err, context.Canceled):
		return Wrap(err, ErrCodeCanceled, "Request was canceled.")
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, sql.ErrNoRows):
		return Wrap(err, ErrCodeNotFound, "Resource not found")
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	appErr := &AppError{Cause: err, Field: violatedColumn(pgErr)}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		appErr.Code, appErr.Message = ErrCodeConflict, "This value already exists."
	case pgerrcode.ForeignKeyViolation:
		// saved_posts and reports both reference users.
		appErr.Code, appErr.Message = ErrCodeForeignKey, "The referenced User does not exist."
	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
		appErr.Code, appErr.Message = ErrCodeValidation, "Invalid data. Please check your input."
	default:
		appErr.Code, appErr.Message = ErrCodeInternal, "Database error"
	}
	return appErr
}

// violatedColumn prefers the server's column metadata and falls back to the detail text.
func violatedColumn(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := reDetailKey.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return m[1]
	}
	return ""
}

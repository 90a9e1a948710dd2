package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/target/creditfeed/internal/errors"
)

// errServer is the only message a client sees for a 5xx.
var errServer = errors.New("Server error") //nolint:stylecheck,revive // user-facing message

// DetermineErrorStatus maps an error to an HTTP status and machine-readable error code.
// AppError codes take precedence; a raw foreign key violation maps to 409; anything else is a 500.
func DetermineErrorStatus(err error) (int, string) {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest, "validation_failed"
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized, "unauthorized"
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden, "forbidden"
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound, "not_found"
	case apperrors.ErrCodeConflict, apperrors.ErrCodeForeignKey:
		return http.StatusConflict, "conflict"
	case apperrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests, "too_many_attempts"
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout, "timeout"
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		return http.StatusConflict, "conflict"
	}
	return http.StatusInternalServerError, "internal_error"
}

// RenderError writes err using DetermineErrorStatus. 5xx responses are logged with the
// cause and reach the client only as a generic message.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	code, errCode := DetermineErrorStatus(err)
	if code >= http.StatusInternalServerError {
		loggerFrom(r).ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		WriteError(w, ErrorParams{Code: code, ErrCode: errCode, Err: errServer})
		return
	}
	WriteError(w, ErrorParams{Code: code, ErrCode: errCode, Err: errors.New(apperrors.Message(err, err.Error()))})
}

package service

import (
	apperrors "github.com/target/creditfeed/internal/errors"
)

// Sentinel errors returned by AuthService and UserService. Each carries an AppError code so
// transports that do not match them explicitly still map them to a sensible status.
var (
	// ErrDuplicateEmail is returned by Register when the email is already registered.
	ErrDuplicateEmail = apperrors.Conflict("User already exists")
	// ErrInvalidCredentials covers unknown emails, missing credentials and wrong passwords alike.
	ErrInvalidCredentials = apperrors.Unauthorized("Invalid credentials")
	// ErrInvalidToken is returned by Authenticate for any token that fails verification.
	ErrInvalidToken = apperrors.Unauthorized("Invalid or expired token, access denied")
	// ErrUserNotFound is returned when the addressed identity does not exist.
	ErrUserNotFound = apperrors.NotFound("User not found")
	// ErrTooManyAttempts is returned by Login while the email is locked out.
	ErrTooManyAttempts = apperrors.New(apperrors.ErrCodeRateLimited, "Too many failed login attempts, try again later")
	// ErrInvalidCredits is returned when an admin supplies a negative or non-integer credit value.
	ErrInvalidCredits = apperrors.Validation("Credits must be a valid number")
	// ErrMissingReportFields is returned when a report lacks a post id or reason.
	ErrMissingReportFields = apperrors.Validation("Post ID and reason are required")
)

package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/target/creditfeed/internal/domain/model"
	apperrors "github.com/target/creditfeed/internal/errors"
	"github.com/target/creditfeed/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	Authenticator
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, in service.LoginInput) (*service.AuthResult, error)
}

// AuthHandlers provides HTTP handlers for registration and login.
type AuthHandlers struct {
	Svc AuthServiceInterface
}

type authResponse struct {
	Message string           `json:"message"`
	Token   string           `json:"token"`
	User    model.PublicUser `json:"user"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if !DecodeJSONLenient(w, r, &req) {
		return
	}

	res, err := h.Svc.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateEmail):
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "duplicate_email", Err: err})
		case apperrors.IsValidation(err):
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		default:
			RenderError(w, r, err)
		}
		return
	}

	WriteJSON(w, http.StatusCreated, authResponse{
		Message: "User registered successfully",
		Token:   res.Token,
		User:    res.User.Public(),
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if !DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.Svc.Login(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "invalid_credentials", Err: err})
		case errors.Is(err, service.ErrTooManyAttempts):
			WriteError(w, ErrorParams{Code: http.StatusTooManyRequests, ErrCode: "too_many_attempts", Err: err})
		default:
			RenderError(w, r, err)
		}
		return
	}

	WriteJSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		Token:   res.Token,
		User:    res.User.Public(),
	})
}

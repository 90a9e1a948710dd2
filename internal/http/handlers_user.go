package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/target/creditfeed/internal/domain/model"
	apperrors "github.com/target/creditfeed/internal/errors"
	"github.com/target/creditfeed/internal/service"
)

// UserServiceInterface defines the user and admin operations exposed over HTTP.
type UserServiceInterface interface {
	Dashboard(ctx context.Context, userID string) (*model.Dashboard, error)
	SavePost(ctx context.Context, userID string, req model.SavePostRequest) error
	SavedPosts(ctx context.Context, userID string) ([]model.SavedPost, error)
	ReportPost(ctx context.Context, userID string, req model.CreateReportRequest) (*model.Report, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	UpdateCredits(ctx context.Context, id string, credits int64) (*model.User, error)
	ListReports(ctx context.Context) ([]*model.Report, error)
}

// UserHandlers provides HTTP handlers for the signed-in user and admin endpoints.
// Every handler runs behind RequireAuth.
type UserHandlers struct {
	Svc UserServiceInterface
}

var errMissingUser = errors.New("authenticated user missing from request context")

func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		RenderError(w, r, errMissingUser)
		return nil, false
	}
	return user, true
}

// Dashboard handles GET /api/user/dashboard.
func (h *UserHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	dash, err := h.Svc.Dashboard(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "user_not_found", Err: err})
			return
		}
		RenderError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, dash)
}

// SavePost handles POST /api/user/save-post.
func (h *UserHandlers) SavePost(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req model.SavePostRequest
	if !DecodeJSONLenient(w, r, &req) {
		return
	}

	if err := h.Svc.SavePost(r.Context(), user.ID, req); err != nil {
		switch {
		case apperrors.IsValidation(err):
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		case errors.Is(err, service.ErrUserNotFound):
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "user_not_found", Err: err})
		default:
			RenderError(w, r, err)
		}
		return
	}

	WriteMessage(w, http.StatusOK, "Post saved successfully")
}

// SavedPosts handles GET /api/user/saved-posts.
func (h *UserHandlers) SavedPosts(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	posts, err := h.Svc.SavedPosts(r.Context(), user.ID)
	if err != nil {
		RenderError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, posts)
}

// ReportPost handles POST /api/user/report-post.
func (h *UserHandlers) ReportPost(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req model.CreateReportRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if _, err := h.Svc.ReportPost(r.Context(), user.ID, req); err != nil {
		switch {
		case errors.Is(err, service.ErrMissingReportFields):
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "missing_fields", Err: err})
		case apperrors.IsValidation(err):
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		case errors.Is(err, service.ErrUserNotFound):
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "user_not_found", Err: err})
		default:
			RenderError(w, r, err)
		}
		return
	}

	WriteMessage(w, http.StatusCreated, "Report submitted successfully")
}

// ListUsers handles GET /api/user/users (admin).
func (h *UserHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Svc.ListUsers(r.Context())
	if err != nil {
		RenderError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, users)
}

// ListReports handles GET /api/user/reports (admin).
func (h *UserHandlers) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.Svc.ListReports(r.Context())
	if err != nil {
		RenderError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, reports)
}

type updateCreditsRequest struct {
	Credits json.RawMessage `json:"credits"`
}

type updateCreditsResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// UpdateCredits handles PUT /api/user/update-credits/{id} (admin).
// The credits value may be a JSON number or a numeric string.
func (h *UserHandlers) UpdateCredits(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("user id is required")})
		return
	}

	var req updateCreditsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	credits, err := parseCreditsValue(req.Credits)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_credits", Err: err})
		return
	}

	user, err := h.Svc.UpdateCredits(r.Context(), id, credits)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredits):
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_credits", Err: err})
		case errors.Is(err, service.ErrUserNotFound):
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "user_not_found", Err: err})
		default:
			RenderError(w, r, err)
		}
		return
	}

	WriteJSON(w, http.StatusOK, updateCreditsResponse{Message: "User credits updated successfully", User: user})
}

func parseCreditsValue(raw json.RawMessage) (int64, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return 0, service.ErrInvalidCredits
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, service.ErrInvalidCredits
	}
	return service.ParseCredits(v)
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/target/creditfeed/internal/core"
	domainauth "github.com/target/creditfeed/internal/domain/auth"
	"github.com/target/creditfeed/internal/domain/model"
	apperrors "github.com/target/creditfeed/internal/errors"
	"github.com/target/creditfeed/internal/observability/metrics"
)

// ContentRepos groups the per-user content stores.
type ContentRepos struct {
	SavedPosts core.SavedPostRepository
	Reports    core.ReportRepository
}

// UserServiceOptions groups dependencies for UserService.
type UserServiceOptions struct {
	Users     core.UserRepository
	Content   ContentRepos
	Telemetry Telemetry
}

// UserService implements the signed-in user features and the admin features.
type UserService struct {
	users   core.UserRepository
	saved   core.SavedPostRepository
	reports core.ReportRepository
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewUserService constructs a new UserService.
func NewUserService(opts UserServiceOptions) *UserService {
	if opts.Users == nil {
		panic("UserRepository is required")
	}
	if opts.Content.SavedPosts == nil {
		panic("SavedPostRepository is required")
	}
	if opts.Content.Reports == nil {
		panic("ReportRepository is required")
	}
	return &UserService{
		users:   opts.Users,
		saved:   opts.Content.SavedPosts,
		reports: opts.Content.Reports,
		logger:  opts.Telemetry.logger().With("component", "user"),
		metrics: opts.Telemetry.Metrics,
	}
}

// Dashboard loads the user together with their saved posts and filed reports.
func (s *UserService) Dashboard(ctx context.Context, userID string) (*model.Dashboard, error) {
	var (
		user    *model.User
		saved   []model.SavedPost
		reports []model.UserReport
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.users.GetByID(gctx, userID)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	g.Go(func() error {
		posts, err := s.saved.ListByUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("list saved posts: %w", err)
		}
		saved = posts
		return nil
	})
	g.Go(func() error {
		rs, err := s.reports.ListByUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("list reports: %w", err)
		}
		reports = rs
		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, s.internal("dashboard", err)
	}

	return &model.Dashboard{
		Username:   user.Username,
		Email:      user.Email,
		Role:       user.Role,
		Credits:    user.Credits,
		SavedPosts: nonNil(saved),
		Reports:    nonNil(reports),
	}, nil
}

// SavePost bookmarks a post for the user. Saving the same post twice is a no-op.
func (s *UserService) SavePost(ctx context.Context, userID string, req model.SavePostRequest) error {
	if err := req.Validate(); err != nil {
		return apperrors.ValidationField("postId", err.Error())
	}
	req.PostID = strings.TrimSpace(req.PostID)

	if err := s.saved.Save(ctx, userID, req); err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return s.internal("save_post", fmt.Errorf("save post: %w", err))
	}
	return nil
}

// SavedPosts lists the user's bookmarks, oldest first. The result is never nil.
func (s *UserService) SavedPosts(ctx context.Context, userID string) ([]model.SavedPost, error) {
	posts, err := s.saved.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.internal("saved_posts", fmt.Errorf("list saved posts: %w", err))
	}
	return nonNil(posts), nil
}

// ReportPost files a moderation report on behalf of the user.
func (s *UserService) ReportPost(ctx context.Context, userID string, req model.CreateReportRequest) (*model.Report, error) {
	if err := req.Validate(); err != nil {
		if errors.Is(err, model.ErrReportFieldsRequired) {
			return nil, ErrMissingReportFields
		}
		return nil, apperrors.Validation(err.Error())
	}
	req.PostID = strings.TrimSpace(req.PostID)
	req.Reason = strings.TrimSpace(req.Reason)

	report, err := s.reports.Create(ctx, userID, req)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, s.internal("report_post", fmt.Errorf("create report: %w", err))
	}
	s.logger.InfoContext(ctx, "post reported", "report_id", report.ID, "post_id", report.PostID)
	return report, nil
}

// ListUsers returns every identity in creation order.
func (s *UserService) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, s.internal("list_users", fmt.Errorf("list users: %w", err))
	}
	return nonNil(users), nil
}

// ListReports returns every report, newest first.
func (s *UserService) ListReports(ctx context.Context) ([]*model.Report, error) {
	reports, err := s.reports.List(ctx)
	if err != nil {
		return nil, s.internal("list_reports", fmt.Errorf("list reports: %w", err))
	}
	return nonNil(reports), nil
}

// UpdateCredits overwrites the credit balance of the identity.
func (s *UserService) UpdateCredits(ctx context.Context, id string, credits int64) (*model.User, error) {
	if credits < 0 {
		return nil, ErrInvalidCredits
	}
	user, err := s.users.SetCredits(ctx, id, credits)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, s.internal("update_credits", fmt.Errorf("set credits: %w", err))
	}
	s.logger.InfoContext(ctx, "credits updated", "user_id", user.ID, "credits", user.Credits)
	return user, nil
}

// UpdateCreditsByEmail resolves the identity by email and overwrites its credit balance.
func (s *UserService) UpdateCreditsByEmail(ctx context.Context, email string, credits int64) (*model.User, error) {
	user, err := s.lookupByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.UpdateCredits(ctx, user.ID, credits)
}

// SetRole changes the role of the identity with the given email. There is no HTTP route for
// this; it is the administrative channel used by the admin CLI.
func (s *UserService) SetRole(ctx context.Context, email string, role domainauth.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, apperrors.ValidationField("role", "role must be one of: user, admin")
	}
	user, err := s.lookupByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	updated, err := s.users.SetRole(ctx, user.ID, role)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, s.internal("set_role", fmt.Errorf("set role: %w", err))
	}
	s.logger.InfoContext(ctx, "role changed", "user_id", updated.ID, "role", updated.Role)
	return updated, nil
}

func (s *UserService) lookupByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (s *UserService) internal(op string, err error) error {
	s.metrics.InternalError(op, err)
	return err
}

// ParseCredits accepts the raw credits value of an update request: a JSON number or a
// numeric string. Integral values written as fractions or exponents ("1.0", 1e2) are accepted.
// Anything else, including fractions and negatives, is ErrInvalidCredits.
func ParseCredits(raw any) (int64, error) {
	switch v := raw.(type) {
	case float64:
		return wholeCredits(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return nonNegativeCredits(n)
		}
		f, err := v.Float64()
		if err != nil {
			return 0, ErrInvalidCredits
		}
		return wholeCredits(f)
	case string:
		trimmed := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return nonNegativeCredits(n)
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, ErrInvalidCredits
		}
		return wholeCredits(f)
	default:
		return 0, ErrInvalidCredits
	}
}

func wholeCredits(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f < 0 || f >= math.MaxInt64 {
		return 0, ErrInvalidCredits
	}
	return int64(f), nil
}

func nonNegativeCredits(n int64) (int64, error) {
	if n < 0 {
		return 0, ErrInvalidCredits
	}
	return n, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

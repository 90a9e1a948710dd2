// Package memstore provides in-memory implementations of the core repositories.
// They follow the same contracts as the Postgres repositories and are safe for concurrent use.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/target/creditfeed/internal/core"
	"github.com/target/creditfeed/internal/domain/auth"
	"github.com/target/creditfeed/internal/domain/model"
)

var (
	_ core.UserRepository      = (*UserRepo)(nil)
	_ core.SavedPostRepository = (*SavedPostRepo)(nil)
	_ core.ReportRepository    = (*ReportRepo)(nil)
)

type userRow struct {
	user model.User
	cred auth.Credential
}

type savedRow struct {
	userID string
	post   model.SavedPost
}

// Store holds every table behind one lock.
type Store struct {
	mu      sync.Mutex
	now     func() time.Time
	users   map[string]*userRow
	byEmail map[string]string
	saved   []savedRow
	reports []model.Report
}

// New returns an empty store. A nil now uses time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Store{
		now:     now,
		users:   make(map[string]*userRow),
		byEmail: make(map[string]string),
	}
}

// Users returns the store as a core.UserRepository.
func (s *Store) Users() *UserRepo { return (*UserRepo)(s) }

// SavedPosts returns the store as a core.SavedPostRepository.
func (s *Store) SavedPosts() *SavedPostRepo { return (*SavedPostRepo)(s) }

// Reports returns the store as a core.ReportRepository.
func (s *Store) Reports() *ReportRepo { return (*ReportRepo)(s) }

// UserRepo is the user view of a Store.
type UserRepo Store

func (r *UserRepo) store() *Store { return (*Store)(r) }

// Create inserts a user with a fresh UUID.
func (r *UserRepo) Create(_ context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if req == nil {
		return nil, errors.New("create user request is required")
	}
	req.Email = model.NormalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[req.Email]; ok {
		return nil, core.ErrUserEmailExists
	}
	now := s.now()
	row := &userRow{
		user: model.User{
			ID:        uuid.NewString(),
			Username:  req.Username,
			Email:     req.Email,
			Role:      req.Role,
			Credits:   req.Credits,
			CreatedAt: now,
			UpdatedAt: now,
		},
		cred: req.Credential,
	}
	s.users[row.user.ID] = row
	s.byEmail[req.Email] = row.user.ID
	u := row.user
	return &u, nil
}

// ExistsByEmail reports whether the email is registered.
func (r *UserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byEmail[model.NormalizeEmail(email)]
	return ok, nil
}

// GetByID returns a copy of the user.
func (r *UserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	u := row.user
	return &u, nil
}

// GetByEmail returns a copy of the user.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	c, err := r.GetCredentialsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &c.User, nil
}

// GetCredentialsByEmail returns the user together with its stored credential.
func (r *UserRepo) GetCredentialsByEmail(_ context.Context, email string) (*model.UserCredentials, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[model.NormalizeEmail(email)]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	row := s.users[id]
	return &model.UserCredentials{User: row.user, Credential: row.cred}, nil
}

// List returns all users in creation order.
func (r *UserRepo) List(_ context.Context) ([]*model.User, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.User, 0, len(s.users))
	for _, row := range s.users {
		u := row.user
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// AddCredits increments the balance under the store lock.
func (r *UserRepo) AddCredits(_ context.Context, id string, delta int64) (*model.User, error) {
	return r.mutate(id, func(u *model.User) { u.Credits += delta })
}

// SetCredits overwrites the balance.
func (r *UserRepo) SetCredits(_ context.Context, id string, credits int64) (*model.User, error) {
	if credits < 0 {
		return nil, errors.New("credits must be non-negative")
	}
	return r.mutate(id, func(u *model.User) { u.Credits = credits })
}

// SetRole changes the role.
func (r *UserRepo) SetRole(_ context.Context, id string, role auth.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, errors.New("role must be one of: user, admin")
	}
	return r.mutate(id, func(u *model.User) { u.Role = role })
}

func (r *UserRepo) mutate(id string, fn func(*model.User)) (*model.User, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	fn(&row.user)
	row.user.UpdatedAt = s.now()
	u := row.user
	return &u, nil
}

// SavedPostRepo is the bookmark view of a Store.
type SavedPostRepo Store

// Save bookmarks the post once per user.
func (r *SavedPostRepo) Save(_ context.Context, userID string, req model.SavePostRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return core.ErrUserNotFound
	}
	for _, row := range s.saved {
		if row.userID == userID && row.post.PostID == req.PostID {
			return nil
		}
	}
	s.saved = append(s.saved, savedRow{
		userID: userID,
		post:   model.SavedPost{PostID: req.PostID, Content: req.Content, SavedAt: s.now()},
	})
	return nil
}

// ListByUser returns the user's bookmarks in save order.
func (r *SavedPostRepo) ListByUser(_ context.Context, userID string) ([]model.SavedPost, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.SavedPost{}
	for _, row := range s.saved {
		if row.userID == userID {
			out = append(out, row.post)
		}
	}
	return out, nil
}

// ReportRepo is the moderation view of a Store.
type ReportRepo Store

// Create files a report.
func (r *ReportRepo) Create(
	_ context.Context,
	reportedBy string,
	req model.CreateReportRequest,
) (*model.Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[reportedBy]; !ok {
		return nil, core.ErrUserNotFound
	}
	now := s.now()
	rep := model.Report{
		ID:         uuid.NewString(),
		PostID:     req.PostID,
		Reason:     req.Reason,
		ReportedBy: reportedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.reports = append(s.reports, rep)
	return &rep, nil
}

// ListByUser returns reports filed by the user, oldest first.
func (r *ReportRepo) ListByUser(_ context.Context, userID string) ([]model.UserReport, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.UserReport{}
	for _, rep := range s.reports {
		if rep.ReportedBy == userID {
			out = append(out, model.UserReport{PostID: rep.PostID, Reason: rep.Reason, ReportedAt: rep.CreatedAt})
		}
	}
	return out, nil
}

// List returns every report, newest first.
func (r *ReportRepo) List(_ context.Context) ([]*model.Report, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Report, len(s.reports))
	for i := range s.reports {
		rep := s.reports[len(s.reports)-1-i]
		out[i] = &rep
	}
	return out, nil
}

package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/target/creditfeed/internal/core"
	"github.com/target/creditfeed/internal/data/pgxutil"
	"github.com/target/creditfeed/internal/domain/model"
	apperrors "github.com/target/creditfeed/internal/errors"
)

var _ core.SavedPostRepository = (*SavedPostRepo)(nil)

const (
	savedPostInsertQuery = `
		INSERT INTO saved_posts (user_id, post_id, content, saved_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, post_id) DO NOTHING`
	savedPostListByUserQuery = `
		SELECT post_id, content, saved_at
		FROM saved_posts
		WHERE user_id = $1
		ORDER BY saved_at ASC, post_id ASC`
)

// SavedPostRepo stores per-user bookmarks.
type SavedPostRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewSavedPostRepo creates a new SavedPostRepo.
func NewSavedPostRepo(db *sql.DB) *SavedPostRepo {
	return &SavedPostRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewSavedPostRepoWithTimeProvider creates a SavedPostRepo with a custom TimeProvider.
func NewSavedPostRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *SavedPostRepo {
	return &SavedPostRepo{DB: db, timeProvider: tp}
}

// Save bookmarks the post. Saving the same post id twice keeps the first entry.
func (r *SavedPostRepo) Save(ctx context.Context, userID string, req model.SavePostRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if uuid.Validate(userID) != nil {
		return ErrUserNotFound
	}

	_, err := r.DB.ExecContext(ctx, savedPostInsertQuery, userID, req.PostID, req.Content, r.timeProvider.Now())
	if err != nil {
		return ownerError("failed to save post", err)
	}
	return nil
}

// ListByUser returns the user's bookmarks in the order they were saved.
func (r *SavedPostRepo) ListByUser(ctx context.Context, userID string) ([]model.SavedPost, error) {
	if uuid.Validate(userID) != nil {
		return []model.SavedPost{}, nil
	}
	posts, err := pgxutil.QueryAll[model.SavedPost](ctx, r.DB, savedPostListByUserQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved posts: %w", apperrors.MapDBError(err))
	}
	return posts, nil
}

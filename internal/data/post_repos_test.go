package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/creditfeed/internal/domain/model"
	"github.com/target/creditfeed/internal/testutil"
)

func TestSavedPostRepo_SaveIsIdempotent(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		u, err := NewUserRepo(db).Create(ctx, newUserRequest("saver"))
		require.NoError(t, err)

		clock := NewFixedTimeProvider(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
		repo := NewSavedPostRepoWithTimeProvider(db, clock)

		require.NoError(t, repo.Save(ctx, u.ID, model.SavePostRequest{PostID: "p1", Content: "first"}))
		clock.AddTime(time.Second)
		require.NoError(t, repo.Save(ctx, u.ID, model.SavePostRequest{PostID: "p2", Content: "second"}))
		clock.AddTime(time.Second)
		require.NoError(t, repo.Save(ctx, u.ID, model.SavePostRequest{PostID: "p1", Content: "changed"}))

		posts, err := repo.ListByUser(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, "p1", posts[0].PostID)
		assert.Equal(t, "first", posts[0].Content)
		assert.Equal(t, "p2", posts[1].PostID)
	})
}

func TestSavedPostRepo_UnknownUser(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewSavedPostRepo(db)
		ctx := context.Background()

		err := repo.Save(ctx, "6f1c7f3e-1d2b-4a53-9a77-3b3c1f1e9f00", model.SavePostRequest{PostID: "p"})
		require.ErrorIs(t, err, ErrUserNotFound)

		err = repo.Save(ctx, "bogus", model.SavePostRequest{PostID: "p"})
		require.ErrorIs(t, err, ErrUserNotFound)

		posts, err := repo.ListByUser(ctx, "bogus")
		require.NoError(t, err)
		assert.Empty(t, posts)
	})
}

func TestReportRepo_CreateAndList(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		users := NewUserRepo(db)
		alice, err := users.Create(ctx, newUserRequest("alice"))
		require.NoError(t, err)
		bob, err := users.Create(ctx, newUserRequest("bob"))
		require.NoError(t, err)

		clock := NewFixedTimeProvider(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
		repo := NewReportRepoWithTimeProvider(db, clock)

		first, err := repo.Create(ctx, alice.ID, model.CreateReportRequest{PostID: "p1", Reason: "spam"})
		require.NoError(t, err)
		assert.Equal(t, alice.ID, first.ReportedBy)

		clock.AddTime(time.Minute)
		_, err = repo.Create(ctx, bob.ID, model.CreateReportRequest{PostID: "p2", Reason: "abuse"})
		require.NoError(t, err)

		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "p2", all[0].PostID, "newest first")
		assert.Equal(t, "p1", all[1].PostID)

		mine, err := repo.ListByUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, "spam", mine[0].Reason)
		assert.True(t, mine[0].ReportedAt.Equal(first.CreatedAt))
	})
}

func TestReportRepo_RequiresFields(t *testing.T) {
	repo := NewReportRepo(nil)
	_, err := repo.Create(context.Background(), "whoever", model.CreateReportRequest{PostID: "p1"})
	require.ErrorIs(t, err, model.ErrReportFieldsRequired)
}

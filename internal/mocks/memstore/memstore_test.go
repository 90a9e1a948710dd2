package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/creditfeed/internal/core"
	"github.com/target/creditfeed/internal/domain/auth"
	"github.com/target/creditfeed/internal/domain/model"
)

type tick struct{ t time.Time }

func (c *tick) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func seedUser(t *testing.T, s *Store, email string) *model.User {
	t.Helper()
	u, err := s.Users().Create(context.Background(), &model.CreateUserRequest{
		Username:   "u",
		Email:      email,
		Role:       auth.RoleUser,
		Credential: auth.Credential{Salt: "s", Hash: "h"},
	})
	require.NoError(t, err)
	return u
}

func TestUsers_Contract(t *testing.T) {
	s := New((&tick{}).now)
	ctx := context.Background()

	u := seedUser(t, s, "A@x.com")
	assert.Equal(t, "a@x.com", u.Email)

	_, err := s.Users().Create(ctx, &model.CreateUserRequest{
		Username: "dup", Email: "a@X.com", Role: auth.RoleUser, Credential: auth.Credential{Salt: "s", Hash: "h"},
	})
	require.ErrorIs(t, err, core.ErrUserEmailExists)

	_, err = s.Users().GetByID(ctx, "missing")
	require.ErrorIs(t, err, core.ErrUserNotFound)

	creds, err := s.Users().GetCredentialsByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "h", creds.Credential.Hash)

	u2 := seedUser(t, s, "b@x.com")
	list, err := s.Users().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, u.ID, list[0].ID)
	assert.Equal(t, u2.ID, list[1].ID)
}

func TestUsers_ConcurrentAddCredits(t *testing.T) {
	s := New(nil)
	u := seedUser(t, s, "c@x.com")

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Users().AddCredits(context.Background(), u.ID, 100)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Users().GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), got.Credits)
}

func TestSavedPostsAndReports(t *testing.T) {
	s := New((&tick{}).now)
	ctx := context.Background()
	u := seedUser(t, s, "d@x.com")

	require.NoError(t, s.SavedPosts().Save(ctx, u.ID, model.SavePostRequest{PostID: "p1", Content: "one"}))
	require.NoError(t, s.SavedPosts().Save(ctx, u.ID, model.SavePostRequest{PostID: "p1", Content: "again"}))
	require.ErrorIs(t, s.SavedPosts().Save(ctx, "nobody", model.SavePostRequest{PostID: "p1"}), core.ErrUserNotFound)

	posts, err := s.SavedPosts().ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "one", posts[0].Content)

	_, err = s.Reports().Create(ctx, u.ID, model.CreateReportRequest{PostID: "p1", Reason: "spam"})
	require.NoError(t, err)
	_, err = s.Reports().Create(ctx, u.ID, model.CreateReportRequest{PostID: "p2", Reason: "rude"})
	require.NoError(t, err)

	all, err := s.Reports().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "p2", all[0].PostID)

	mine, err := s.Reports().ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "p1", mine[0].PostID)
}

package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"

	"twitterclone/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "twitter-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.Migrate(context.Background())
	require.NoError(t, err)
	return s
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	applied, err := s.Migrate(context.Background())
	require.NoError(t, err)
	require.Empty(t, applied)
}

func TestCreateAndFindUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	username := gofakeit.Username()
	created, err := s.CreateUser(ctx, username, "hash")
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, username, created.Username)

	byName, err := s.FindUserByUsername(ctx, username)
	require.NoError(t, err)
	require.Equal(t, created.ID, byName.ID)
	require.Equal(t, "hash", byName.PasswordHash)
	require.True(t, created.CreatedAt.Equal(byName.CreatedAt))

	byID, err := s.FindUserByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, username, byID.Username)

	exists, err := s.UserExists(ctx, username)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestFindMissingUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.FindUserByUsername(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.FindUserByID(ctx, 42)
	require.ErrorIs(t, err, store.ErrNotFound)

	exists, err := s.UserExists(ctx, "nobody")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestCreateUserConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CreateUser(ctx, "eugen", "hash")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "eugen", "other")
	require.ErrorIs(t, err, store.ErrConflict)
}

func TestListTweetsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	user, err := s.CreateUser(ctx, "eugen", "hash")
	require.NoError(t, err)

	_, err = s.CreateTweet(ctx, "Hello World", &user.ID)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = s.CreateTweet(ctx, "system notice", nil)
	require.NoError(t, err)

	// Same second as the previous tweet; id breaks the tie.
	_, err = s.CreateTweet(ctx, "second by eugen", &user.ID)
	require.NoError(t, err)

	tweets, err := s.ListTweets(ctx)
	require.NoError(t, err)
	require.Len(t, tweets, 3)

	require.Equal(t, "second by eugen", tweets[0].Text)
	require.Equal(t, "eugen", tweets[0].Author())

	require.Equal(t, "system notice", tweets[1].Text)
	require.Nil(t, tweets[1].UserID)
	require.Equal(t, store.ServerAuthor, tweets[1].Author())

	require.Equal(t, "Hello World", tweets[2].Text)
	require.True(t, now.Add(-time.Minute).Equal(tweets[2].CreatedAt))
}

func TestListTweetsEmpty(t *testing.T) {
	s := newTestStore(t)

	tweets, err := s.ListTweets(context.Background())
	require.NoError(t, err)
	require.Empty(t, tweets)
}

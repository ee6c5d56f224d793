package jsondb

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/miniblog/internal/models"
)

func newTestDB(t *testing.T) (*JSONDB, string) {
	fileName := filepath.Join(t.TempDir(), "db.json")
	db, err := New(fileName)
	require.NoError(t, err)

	return db, fileName
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	usr, err := db.CreateUser(ctx, "a@x.com", "digest")
	require.NoError(t, err)
	assert.Equal(t, 1, usr.ID)

	_, err = db.CreateUser(ctx, "a@x.com", "another-digest")
	assert.ErrorIs(t, err, models.ErrEmailAlreadyRegistered)
}

func TestFindUser(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	created, err := db.CreateUser(ctx, "a@x.com", "digest")
	require.NoError(t, err)

	byEmail, found, err := db.FindUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created, byEmail)

	byID, found, err := db.FindUserByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created, byID)

	_, found, err = db.FindUserByEmail(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = db.FindUserByID(ctx, 1000)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPostsLifecycle(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	owner, err := db.CreateUser(ctx, "a@x.com", "digest")
	require.NoError(t, err)

	first, err := db.CreatePost(ctx, owner.ID, "first post")
	require.NoError(t, err)
	second, err := db.CreatePost(ctx, owner.ID, "second post")
	require.NoError(t, err)
	assert.Less(t, first.ID, second.ID)

	posts, err := db.ListPosts(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "first post", posts[0].Text)
	assert.Equal(t, "second post", posts[1].Text)

	deleted, err := db.DeletePost(ctx, owner.ID, first.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	posts, err = db.ListPosts(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, second.ID, posts[0].ID)
}

func TestDeletePostOfAnotherUserReportsFalse(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	owner, err := db.CreateUser(ctx, "a@x.com", "digest")
	require.NoError(t, err)
	stranger, err := db.CreateUser(ctx, "b@x.com", "digest")
	require.NoError(t, err)

	post, err := db.CreatePost(ctx, owner.ID, "hello")
	require.NoError(t, err)

	deleted, err := db.DeletePost(ctx, stranger.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = db.DeletePost(ctx, owner.ID, 1000)
	require.NoError(t, err)
	assert.False(t, deleted)

	posts, err := db.ListPosts(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestCreatePostEnforcesTextSizeLimit(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	owner, err := db.CreateUser(ctx, "a@x.com", "digest")
	require.NoError(t, err)

	_, err = db.CreatePost(ctx, owner.ID, strings.Repeat("a", models.MaxPostTextBytes+1))
	assert.ErrorIs(t, err, models.ErrPostTextTooLarge)

	_, err = db.CreatePost(ctx, owner.ID, strings.Repeat("a", models.MaxPostTextBytes))
	assert.NoError(t, err)
}

func TestGetNumberOfUsersAndPosts(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	usr, err := db.CreateUser(ctx, "a@x.com", "digest")
	require.NoError(t, err)
	_, err = db.CreateUser(ctx, "b@x.com", "digest")
	require.NoError(t, err)
	_, err = db.CreatePost(ctx, usr.ID, "hello")
	require.NoError(t, err)

	users, err := db.GetNumberOfUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), users)

	posts, err := db.GetNumberOfPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), posts)
}

func TestDataSurvivesReopen(t *testing.T) {
	db, fileName := newTestDB(t)
	ctx := context.Background()

	usr, err := db.CreateUser(ctx, "a@x.com", "digest")
	require.NoError(t, err)
	post, err := db.CreatePost(ctx, usr.ID, "hello")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := New(fileName)
	require.NoError(t, err)

	found, ok, err := reopened.FindUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, usr.ID, found.ID)
	assert.Equal(t, usr.PasswordHash, found.PasswordHash)

	posts, err := reopened.ListPosts(ctx, usr.ID)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, post, posts[0])

	// id counters continue after the reopen
	another, err := reopened.CreateUser(ctx, "b@x.com", "digest")
	require.NoError(t, err)
	assert.Equal(t, usr.ID+1, another.ID)
}

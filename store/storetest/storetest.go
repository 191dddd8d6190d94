// Package storetest holds the behavioral contract every store.Store must satisfy.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/store"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run executes the contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAndFetchUser", func(t *testing.T) { testCreateAndFetchUser(t, newStore(t)) })
	t.Run("DuplicateEmail", func(t *testing.T) { testDuplicateEmail(t, newStore(t)) })
	t.Run("UnknownUser", func(t *testing.T) { testUnknownUser(t, newStore(t)) })
	t.Run("GetUsersByIDs", func(t *testing.T) { testGetUsersByIDs(t, newStore(t)) })
	t.Run("CreateAndGetPost", func(t *testing.T) { testCreateAndGetPost(t, newStore(t)) })
	t.Run("UnknownPost", func(t *testing.T) { testUnknownPost(t, newStore(t)) })
	t.Run("SavePostKeepsCommentOrder", func(t *testing.T) { testSavePostKeepsCommentOrder(t, newStore(t)) })
	t.Run("SavePostKeepsUpdatedAt", func(t *testing.T) { testSavePostKeepsUpdatedAt(t, newStore(t)) })
	t.Run("FetchedPostIsDetached", func(t *testing.T) { testFetchedPostIsDetached(t, newStore(t)) })
	t.Run("DeletePost", func(t *testing.T) { testDeletePost(t, newStore(t)) })
	t.Run("ListPostsNewestFirst", func(t *testing.T) { testListPostsNewestFirst(t, newStore(t)) })
}

func mustUser(t *testing.T, s store.Store, name string) *models.User {
	t.Helper()
	u := &models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: "hash-" + name,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	require.NotEmpty(t, u.ID)
	return u
}

func mustPost(t *testing.T, s store.Store, author *models.User, title string, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{
		AuthorID:  author.ID,
		Title:     title,
		Content:   "content of " + title,
		CreatedAt: at,
		UpdatedAt: at,
	}
	require.NoError(t, s.CreatePost(context.Background(), p))
	require.NotEmpty(t, p.ID)
	return p
}

func testCreateAndFetchUser(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "alice")

	byID, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Name)
	assert.Equal(t, "alice@example.com", byID.Email)
	assert.Equal(t, "hash-alice", byID.PasswordHash)

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
}

func testDuplicateEmail(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustUser(t, s, "bob")

	err := s.CreateUser(ctx, &models.User{Name: "bobby", Email: "bob@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)

	u, err := s.GetUserByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Name)
}

func testUnknownUser(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetUserByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testGetUsersByIDs(t *testing.T, s store.Store) {
	a := mustUser(t, s, "carol")
	b := mustUser(t, s, "dave")

	users, err := s.GetUsersByIDs(context.Background(), []string{a.ID, b.ID, a.ID, "missing"})
	require.NoError(t, err)
	names := map[string]string{}
	for _, u := range users {
		names[u.ID] = u.Name
	}
	assert.Equal(t, map[string]string{a.ID: "carol", b.ID: "dave"}, names)

	none, err := s.GetUsersByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testCreateAndGetPost(t *testing.T, s store.Store) {
	author := mustUser(t, s, "erin")
	at := time.Now().UTC().Truncate(time.Second)
	p := mustPost(t, s, author, "first", at)

	got, err := s.GetPost(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, author.ID, got.AuthorID)
	assert.Equal(t, "first", got.Title)
	assert.Equal(t, "content of first", got.Content)
	assert.NotNil(t, got.Comments)
	assert.Empty(t, got.Comments)
	assert.WithinDuration(t, at, got.CreatedAt, time.Second)
}

func testUnknownPost(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.GetPost(ctx, "does-not-exist")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeletePost(ctx, "does-not-exist"), store.ErrNotFound)

	author := mustUser(t, s, "frank")
	ghost := &models.Post{ID: s.NewCommentID(), AuthorID: author.ID, Title: "t", Content: "c"}
	assert.ErrorIs(t, s.SavePost(ctx, ghost), store.ErrNotFound)
}

func testSavePostKeepsCommentOrder(t *testing.T, s store.Store) {
	ctx := context.Background()
	author := mustUser(t, s, "grace")
	reader := mustUser(t, s, "heidi")
	base := time.Now().UTC().Truncate(time.Second)
	p := mustPost(t, s, author, "commented", base)

	var ids []string
	for i := 0; i < 3; i++ {
		got, err := s.GetPost(ctx, p.ID)
		require.NoError(t, err)
		c := models.Comment{
			ID:        s.NewCommentID(),
			AuthorID:  reader.ID,
			Content:   fmt.Sprintf("comment %d", i),
			CreatedAt: base.Add(time.Duration(i+1) * time.Second),
		}
		got.Comments = append([]models.Comment{c}, got.Comments...)
		require.NoError(t, s.SavePost(ctx, got))
		ids = append([]string{c.ID}, ids...)
	}

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 3)
	for i, c := range got.Comments {
		assert.Equal(t, ids[i], c.ID)
		assert.Equal(t, reader.ID, c.AuthorID)
	}
	assert.Equal(t, "comment 2", got.Comments[0].Content)

	got.Title = "retitled"
	got.Content = ""
	got.Comments = append(got.Comments[:1], got.Comments[2:]...)
	require.NoError(t, s.SavePost(ctx, got))

	again, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "retitled", again.Title)
	assert.Equal(t, "", again.Content)
	require.Len(t, again.Comments, 2)
	assert.Equal(t, ids[0], again.Comments[0].ID)
	assert.Equal(t, ids[2], again.Comments[1].ID)
	assert.Equal(t, author.ID, again.AuthorID)
}

func testSavePostKeepsUpdatedAt(t *testing.T, s store.Store) {
	ctx := context.Background()
	author := mustUser(t, s, "oscar")
	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	p := mustPost(t, s, author, "dated", created)

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	edited := created.Add(2 * time.Hour)
	got.Title = "redated"
	got.UpdatedAt = edited
	require.NoError(t, s.SavePost(ctx, got))

	again, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, again.UpdatedAt.Equal(edited), "updatedAt = %s, want %s", again.UpdatedAt, edited)
	assert.True(t, again.CreatedAt.Equal(created), "createdAt = %s, want %s", again.CreatedAt, created)
}

func testFetchedPostIsDetached(t *testing.T, s store.Store) {
	ctx := context.Background()
	author := mustUser(t, s, "ivan")
	p := mustPost(t, s, author, "stable", time.Now().UTC().Truncate(time.Second))

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	got.Title = "changed but not saved"
	got.Comments = append(got.Comments, models.Comment{ID: s.NewCommentID(), AuthorID: author.ID, Content: "x"})

	again, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "stable", again.Title)
	assert.Empty(t, again.Comments)
}

func testDeletePost(t *testing.T, s store.Store) {
	ctx := context.Background()
	author := mustUser(t, s, "judy")
	p := mustPost(t, s, author, "doomed", time.Now().UTC().Truncate(time.Second))

	require.NoError(t, s.DeletePost(ctx, p.ID))
	_, err := s.GetPost(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeletePost(ctx, p.ID), store.ErrNotFound)
}

func testListPostsNewestFirst(t *testing.T, s store.Store) {
	ctx := context.Background()
	author := mustUser(t, s, "mallory")
	base := time.Now().UTC().Truncate(time.Second).Add(-time.Hour)
	for i := 0; i < 5; i++ {
		mustPost(t, s, author, fmt.Sprintf("post %d", i), base.Add(time.Duration(i)*time.Minute))
	}

	posts, err := s.ListPosts(ctx, 3)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "post 4", posts[0].Title)
	assert.Equal(t, "post 3", posts[1].Title)
	assert.Equal(t, "post 2", posts[2].Title)

	all, err := s.ListPosts(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

package repository

import (
	"context"
	"testing"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_ListOrderingAndFilters(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	testutil.CreateUser(t, db, 1, "leo")
	testutil.CreateUser(t, db, 2, "ana")
	testutil.CreateUser(t, db, 3, "viewer")
	cats := testutil.CreateGroup(t, db, "cats")

	leoPosts := testutil.CreatePosts(t, db, 1, &cats.ID, 3)
	testutil.CreatePosts(t, db, 2, nil, 2)
	require.NoError(t, db.Create(&models.Follow{UserID: 3, AuthorID: 1}).Error)

	all, err := repo.List(ctx, models.PostFilter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt), "posts must be newest first")
	}
	assert.Equal(t, "ana", all[0].Author.Username)

	byGroup, err := repo.List(ctx, models.PostFilter{GroupID: &cats.ID}, 10, 0)
	require.NoError(t, err)
	require.Len(t, byGroup, 3)
	assert.Equal(t, leoPosts[2].ID, byGroup[0].ID)
	require.NotNil(t, byGroup[0].Group)
	assert.Equal(t, "cats", byGroup[0].Group.Slug)

	author := uint(2)
	n, err := repo.Count(ctx, models.PostFilter{AuthorID: &author})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	viewer := uint(3)
	feed, err := repo.List(ctx, models.PostFilter{FollowedBy: &viewer}, 10, 0)
	require.NoError(t, err)
	require.Len(t, feed, 3)
	for _, p := range feed {
		assert.Equal(t, uint(1), p.AuthorID)
	}

	page, err := repo.List(ctx, models.PostFilter{}, 2, 4)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestPostRepository_TieBreakOnID(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	testutil.CreateUser(t, db, 1, "leo")

	first := &models.Post{Text: "a", AuthorID: 1}
	require.NoError(t, repo.Create(ctx, first))
	second := &models.Post{Text: "b", AuthorID: 1, CreatedAt: first.CreatedAt}
	require.NoError(t, repo.Create(ctx, second))

	posts, err := repo.List(ctx, models.PostFilter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
}

func TestPostRepository_GetAndUpdate(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	testutil.CreateUser(t, db, 1, "leo")
	g := testutil.CreateGroup(t, db, "dogs")

	post := &models.Post{Text: "original", AuthorID: 1, GroupID: &g.ID, Image: "posts/a.png"}
	require.NoError(t, repo.Create(ctx, post))
	createdAt := post.CreatedAt

	post.Text = "edited"
	post.GroupID = nil
	post.Image = ""
	require.NoError(t, repo.Update(ctx, post))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Text)
	assert.Nil(t, got.GroupID)
	assert.Empty(t, got.Image)
	assert.Equal(t, "leo", got.Author.Username)
	assert.WithinDuration(t, createdAt, got.CreatedAt, time.Millisecond)

	_, err = repo.GetByID(ctx, 9999)
	assert.True(t, models.IsNotFound(err))

	err = repo.Update(ctx, &models.Post{ID: 9999, Text: "x"})
	assert.True(t, models.IsNotFound(err))
}

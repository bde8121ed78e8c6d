package repository

import (
	"context"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_UpsertAndLookup(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.User{ID: 42, Username: "leo", DisplayName: "Leo"}))
	require.NoError(t, repo.Upsert(ctx, &models.User{ID: 42, Username: "leo", DisplayName: "Leo T."}))

	u, err := repo.GetByUsername(ctx, "leo")
	require.NoError(t, err)
	assert.Equal(t, uint(42), u.ID)
	assert.Equal(t, "Leo T.", u.DisplayName)

	_, err = repo.GetByUsername(ctx, "nobody")
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "User nobody not found", appErr.Message)

	_, err = repo.GetByID(ctx, 7)
	assert.True(t, models.IsNotFound(err))
}

func TestUserRepository_UpsertReleasesMovedUsername(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.User{ID: 1, Username: "alice"}))
	require.NoError(t, repo.Upsert(ctx, &models.User{ID: 2, Username: "alice", DisplayName: "Alice"}))

	u, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint(2), u.ID)

	stale, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "user1", stale.Username)

	// the stale account takes a new name on its next sign-in
	require.NoError(t, repo.Upsert(ctx, &models.User{ID: 1, Username: "alice-old"}))
	stale, err = repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice-old", stale.Username)
}

func TestUserRepository_UpsertSkipsUnchangedIdentity(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.User{ID: 5, Username: "leo", DisplayName: "Leo"}))
	first, err := repo.GetByID(ctx, 5)
	require.NoError(t, err)

	again := &models.User{ID: 5, Username: "leo", DisplayName: "Leo"}
	require.NoError(t, repo.Upsert(ctx, again))
	assert.True(t, first.UpdatedAt.Equal(again.UpdatedAt), "unchanged identity is returned as stored")

	after, err := repo.GetByID(ctx, 5)
	require.NoError(t, err)
	assert.True(t, first.UpdatedAt.Equal(after.UpdatedAt))
}

func TestGroupRepository(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGroupRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.Group{Slug: "cats", Title: "Cats", Description: "meow"}))
	require.NoError(t, repo.Upsert(ctx, &models.Group{Slug: "cats", Title: "Cats!", Description: "purr"}))
	require.NoError(t, repo.Upsert(ctx, &models.Group{Slug: "birds", Title: "Birds"}))

	groups, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "birds", groups[0].Slug)

	g, err := repo.GetBySlug(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, "Cats!", g.Title)
	assert.Equal(t, "purr", g.Description)

	byID, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "cats", byID.Slug)

	_, err = repo.GetBySlug(ctx, "missing")
	assert.True(t, models.IsNotFound(err))
}

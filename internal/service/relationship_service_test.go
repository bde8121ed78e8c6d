package service

import (
	"context"
	"errors"
	"testing"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRelationshipFixture() (*RelationshipService, *followRepoStub) {
	follows := newFollowRepoStub()
	users := &userRepoStub{users: map[string]models.User{
		"reader": {ID: 1, Username: "reader"},
		"writer": {ID: 2, Username: "writer"},
	}}
	return NewRelationshipService(follows, users), follows
}

func TestRelationshipService_FollowStrict(t *testing.T) {
	svc, _ := newRelationshipFixture()
	ctx := context.Background()

	assert.ErrorIs(t, svc.Follow(ctx, 1, 1), models.ErrSelfFollow)
	require.NoError(t, svc.Follow(ctx, 1, 2))
	assert.ErrorIs(t, svc.Follow(ctx, 1, 2), models.ErrDuplicateFollow)
}

func TestRelationshipService_FollowTwiceIsFollowOnce(t *testing.T) {
	svc, follows := newRelationshipFixture()
	ctx := context.Background()

	created, err := svc.FollowIdempotent(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.FollowIdempotent(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, follows.edges, 1)

	created, err = svc.FollowIdempotent(ctx, 1, 1)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, follows.edges, 1)
}

func TestRelationshipService_StoreConstraintAbsorbed(t *testing.T) {
	svc, follows := newRelationshipFixture()
	// the pre-check passes but a concurrent insert won the race
	follows.createErr = models.ErrDuplicateFollow

	created, err := svc.FollowIdempotent(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, follows.creates)
}

func TestRelationshipService_FollowPropagatesStoreFailure(t *testing.T) {
	svc, follows := newRelationshipFixture()
	follows.createErr = errors.New("db down")

	_, err := svc.FollowIdempotent(context.Background(), 1, 2)
	assert.EqualError(t, err, "db down")
}

func TestRelationshipService_ByUsername(t *testing.T) {
	svc, _ := newRelationshipFixture()
	ctx := context.Background()

	_, err := svc.FollowByUsername(ctx, 1, "ghost")
	assertNotFound(t, err, "User ghost not found")

	created, err := svc.FollowByUsername(ctx, 1, "writer")
	require.NoError(t, err)
	assert.True(t, created)

	following, err := svc.IsFollowing(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, following)

	require.NoError(t, svc.UnfollowByUsername(ctx, 1, "writer"))
	following, err = svc.IsFollowing(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, following)

	// unknown user and missing edge are distinct not-found cases
	assertNotFound(t, svc.UnfollowByUsername(ctx, 1, "ghost"), "User ghost not found")
	assertNotFound(t, svc.UnfollowByUsername(ctx, 1, "writer"), "Follow 2 not found")
}

func TestRelationshipService_IsFollowingAnonymous(t *testing.T) {
	svc, _ := newRelationshipFixture()
	following, err := svc.IsFollowing(context.Background(), 0, 2)
	require.NoError(t, err)
	assert.False(t, following)
}

func assertNotFound(t *testing.T, err error, message string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
	assert.Equal(t, message, appErr.Message)
}

func assertValidationError(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, field)
}
